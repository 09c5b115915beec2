// internal/app/features/invites/handler.go
package invites

import (
	"context"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/circlehub/internal/app/features/errors"
	circlestore "github.com/dalemusser/circlehub/internal/app/store/circles"
	invitestore "github.com/dalemusser/circlehub/internal/app/store/invites"
	memberstore "github.com/dalemusser/circlehub/internal/app/store/members"
	wardstore "github.com/dalemusser/circlehub/internal/app/store/wards"
	"github.com/dalemusser/circlehub/internal/app/system/auth"
	"github.com/dalemusser/circlehub/internal/app/system/mailer"
	"github.com/dalemusser/circlehub/internal/app/system/metrics"
	"github.com/dalemusser/circlehub/internal/app/system/timeouts"
	"github.com/dalemusser/circlehub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// inviteTTL is how long an emailed invite link stays valid. The TTL
// index on invites.expires_at reaps expired documents.
const inviteTTL = 14 * 24 * time.Hour

// Handler sends invite-to-app emails for circles and single members.
type Handler struct {
	DB      *mongo.Database
	Log     *zap.Logger
	ErrLog  *uierrors.ErrorLogger
	Wards   *wardstore.Store
	Members *memberstore.Store
	Circles *circlestore.Store
	Invites *invitestore.Store

	Sender   mailer.Sender
	SiteName string
	BaseURL  string
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, sender mailer.Sender, siteName, baseURL string, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Log:      logger,
		ErrLog:   errLog,
		Wards:    wardstore.New(db),
		Members:  memberstore.New(db),
		Circles:  circlestore.New(db),
		Invites:  invitestore.New(db),
		Sender:   sender,
		SiteName: siteName,
		BaseURL:  baseURL,
	}
}

// inviteResult is the JSON summary of an invite batch.
type inviteResult struct {
	Sent    int      `json:"sent"`
	NoEmail int      `json:"no_email"`
	Failed  int      `json:"failed"`
	Invited []string `json:"invited,omitempty"` // member ids
}

// wardFromRequest mirrors the circles feature's access rule: stake
// admins reach any ward in their stake, ward admins only their own.
func (h *Handler) wardFromRequest(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Ward, bool) {
	wid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "wardID"))
	if err != nil {
		uierrors.RenderBadRequest(w, r, "Invalid ward ID.")
		return models.Ward{}, false
	}
	ward, err := h.Wards.GetByID(ctx, wid)
	if err == wardstore.ErrNotFound {
		uierrors.RenderNotFound(w, r, "Ward not found.")
		return models.Ward{}, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error loading ward", err, "A database error occurred.")
		return models.Ward{}, false
	}

	u, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.RenderForbidden(w, r, "Sign in required.")
		return models.Ward{}, false
	}
	switch u.Role {
	case auth.RoleStakeAdmin:
		if u.StakeID != ward.StakeID.Hex() {
			uierrors.RenderForbidden(w, r, "You don't have permission to manage this ward.")
			return models.Ward{}, false
		}
	case auth.RoleWardAdmin:
		if u.WardID != ward.ID.Hex() {
			uierrors.RenderForbidden(w, r, "You don't have permission to manage this ward.")
			return models.Ward{}, false
		}
	default:
		uierrors.RenderForbidden(w, r, "You don't have permission to send invites.")
		return models.Ward{}, false
	}
	return ward, true
}

// HandleInviteCircle handles POST /invites/{wardID}/circle/{circleID}:
// every member of the circle with an email on file gets an invite.
func (h *Handler) HandleInviteCircle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Batch())
	defer cancel()

	ward, ok := h.wardFromRequest(ctx, w, r)
	if !ok {
		return
	}
	cid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "circleID"))
	if err != nil {
		uierrors.RenderBadRequest(w, r, "Invalid circle ID.")
		return
	}
	circle, err := h.Circles.GetByID(ctx, cid)
	if err == circlestore.ErrNotFound {
		uierrors.RenderNotFound(w, r, "Circle not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error loading circle", err, "A database error occurred.")
		return
	}
	if circle.WardID != ward.ID {
		uierrors.RenderNotFound(w, r, "Circle not found in this ward.")
		return
	}

	var res inviteResult
	for _, mid := range circle.MemberIDs {
		m, err := h.Members.GetByID(ctx, mid)
		if err != nil {
			h.Log.Warn("invite: member lookup failed", zap.String("member_id", mid.Hex()), zap.Error(err))
			res.Failed++
			continue
		}
		h.inviteOne(ctx, ward, m, &circle.ID, &res)
	}

	uierrors.JSON(w, http.StatusOK, res)
}

// HandleInviteMember handles POST /invites/{wardID}/member/{memberID}.
func (h *Handler) HandleInviteMember(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	ward, ok := h.wardFromRequest(ctx, w, r)
	if !ok {
		return
	}
	mid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "memberID"))
	if err != nil {
		uierrors.RenderBadRequest(w, r, "Invalid member ID.")
		return
	}
	m, err := h.Members.GetByID(ctx, mid)
	if err == memberstore.ErrNotFound {
		uierrors.RenderNotFound(w, r, "Member not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error loading member", err, "A database error occurred.")
		return
	}
	if m.WardID != ward.ID {
		uierrors.RenderNotFound(w, r, "Member not found in this ward.")
		return
	}
	if m.Email == "" {
		uierrors.RenderBadRequest(w, r, "This member has no email on file.")
		return
	}

	var res inviteResult
	h.inviteOne(ctx, ward, m, nil, &res)
	if res.Failed > 0 {
		uierrors.JSON(w, http.StatusBadGateway, res)
		return
	}
	uierrors.JSON(w, http.StatusOK, res)
}

// inviteOne persists the token and sends the email, tallying into res.
func (h *Handler) inviteOne(ctx context.Context, ward models.Ward, m models.Member, circleID *primitive.ObjectID, res *inviteResult) {
	if m.Email == "" {
		res.NoEmail++
		return
	}

	now := time.Now().UTC()
	inv := models.Invite{
		StakeID:   ward.StakeID,
		WardID:    ward.ID,
		MemberID:  m.ID,
		CircleID:  circleID,
		Email:     m.Email,
		Token:     uuid.NewString(),
		SentAt:    now,
		ExpiresAt: now.Add(inviteTTL),
	}
	inv, err := h.Invites.Create(ctx, inv)
	if err != nil {
		h.Log.Error("invite: persist failed", zap.String("member_id", m.ID.Hex()), zap.Error(err))
		res.Failed++
		return
	}

	email := mailer.BuildInviteEmail(mailer.InviteEmailData{
		SiteName:   h.SiteName,
		MemberName: m.FullName,
		WardName:   ward.Name,
		InviteLink: h.BaseURL + "/join?token=" + inv.Token,
		ExpiresIn:  "14 days",
	})
	email.To = m.Email
	if err := h.Sender.Send(ctx, email); err != nil {
		h.Log.Error("invite: send failed", zap.String("email", m.Email), zap.Error(err))
		res.Failed++
		return
	}

	metrics.InvitesSent.Inc()
	res.Sent++
	res.Invited = append(res.Invited, m.ID.Hex())
}
