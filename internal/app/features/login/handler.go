// internal/app/features/login/handler.go
package login

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	uierrors "github.com/dalemusser/circlehub/internal/app/features/errors"
	invitestore "github.com/dalemusser/circlehub/internal/app/store/invites"
	memberstore "github.com/dalemusser/circlehub/internal/app/store/members"
	"github.com/dalemusser/circlehub/internal/app/system/auth"
	"github.com/dalemusser/circlehub/internal/app/system/ratelimit"
	"github.com/dalemusser/circlehub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// activateLimit caps token-activation attempts per client IP so invite
// tokens cannot be guessed by enumeration.
const (
	activateLimit  = 10
	activateWindow = time.Minute
)

// Handler activates invite tokens and establishes member sessions.
//
// Admin identities come from the external identity provider that
// fronts this service; the only sign-in this app performs itself is the
// invite-link activation a member follows from their email.
type Handler struct {
	DB         *mongo.Database
	Log        *zap.Logger
	ErrLog     *uierrors.ErrorLogger
	SessionMgr *auth.SessionManager
	Members    *memberstore.Store
	Invites    *invitestore.Store

	limiter *ratelimit.Limiter
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, sessionMgr *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{
		DB:         db,
		Log:        logger,
		ErrLog:     errLog,
		SessionMgr: sessionMgr,
		Members:    memberstore.New(db),
		Invites:    invitestore.New(db),
		limiter:    ratelimit.New(activateLimit, activateWindow),
	}
}

// HandleActivate handles POST /login/activate with body
// {"token": "..."}. A valid, unexpired invite token signs the member
// in, flips their has_logged_in flag, and consumes their outstanding
// invites.
func (h *Handler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ip := ratelimit.ClientIP(r)
	if !h.limiter.Allow(ip) {
		h.Log.Warn("activation rate limited", zap.String("ip", ip))
		uierrors.JSON(w, http.StatusTooManyRequests, map[string]string{"error": "Too many attempts. Try again in a minute."})
		return
	}

	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad activate payload", err, "Invalid request body.")
		return
	}
	token := strings.TrimSpace(req.Token)
	if token == "" {
		uierrors.RenderBadRequest(w, r, "Invite token is required.")
		return
	}

	inv, err := h.Invites.GetByToken(ctx, token)
	if err == invitestore.ErrNotFound {
		uierrors.RenderNotFound(w, r, "This invite link is invalid or has expired.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error resolving invite token", err, "A database error occurred.")
		return
	}

	m, err := h.Members.GetByID(ctx, inv.MemberID)
	if err == memberstore.ErrNotFound {
		// The member was deleted after the invite went out.
		uierrors.RenderNotFound(w, r, "This invite link is no longer valid.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error loading invited member", err, "A database error occurred.")
		return
	}

	if err := h.Members.SetLoggedIn(ctx, m.ID, true); err != nil {
		h.ErrLog.LogServerError(w, r, "failed to mark member activated", err, "Failed to activate your account.")
		return
	}
	if err := h.Invites.DeleteByMember(ctx, m.ID); err != nil {
		h.Log.Warn("failed to consume invites", zap.String("member_id", m.ID.Hex()), zap.Error(err))
	}

	user := auth.SessionUser{
		ID:      m.ID.Hex(),
		Name:    m.FullName,
		Email:   m.Email,
		Role:    auth.RoleMember,
		StakeID: m.StakeID.Hex(),
		WardID:  m.WardID.Hex(),
	}
	if err := h.SessionMgr.SignIn(w, r, user); err != nil {
		h.ErrLog.LogServerError(w, r, "failed to establish session", err, "Failed to sign you in.")
		return
	}
	h.limiter.Reset(ip)

	h.Log.Info("member activated via invite",
		zap.String("member_id", m.ID.Hex()),
		zap.String("ward_id", m.WardID.Hex()))
	uierrors.JSON(w, http.StatusOK, user)
}
