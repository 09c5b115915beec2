// internal/app/system/mailer/mailer.go

// Package mailer sends transactional email: sign-up invites for ward
// members. Templates build the bodies; Sender implementations deliver
// them.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

// Email is one outbound message with both HTML and plain-text bodies.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender delivers an email. SMTPSender is the production
// implementation; tests use a recording fake.
type Sender interface {
	Send(ctx context.Context, email Email) error
}

// SMTPSender delivers mail through a plain SMTP relay with optional
// AUTH PLAIN credentials.
type SMTPSender struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Log      *zap.Logger
}

func (s *SMTPSender) Send(ctx context.Context, email Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)

	var auth smtp.Auth
	if s.Username != "" {
		auth = smtp.PlainAuth("", s.Username, s.Password, s.Host)
	}

	msg := buildMIME(s.From, email)
	if err := smtp.SendMail(addr, auth, s.From, []string{email.To}, msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", email.To, err)
	}
	if s.Log != nil {
		s.Log.Info("email sent",
			zap.String("to", email.To),
			zap.String("subject", email.Subject),
		)
	}
	return nil
}

// buildMIME assembles a multipart/alternative message so clients that
// cannot render HTML fall back to the text body.
func buildMIME(from string, email Email) []byte {
	const boundary = "circlehub-alt-boundary"
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", email.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", email.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n", boundary)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(email.TextBody)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	b.WriteString(email.HTMLBody)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return []byte(b.String())
}
