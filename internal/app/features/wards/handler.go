// internal/app/features/wards/handler.go
package wards

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/circlehub/internal/app/features/errors"
	memberstore "github.com/dalemusser/circlehub/internal/app/store/members"
	stakestore "github.com/dalemusser/circlehub/internal/app/store/stakes"
	wardstore "github.com/dalemusser/circlehub/internal/app/store/wards"
	"github.com/dalemusser/circlehub/internal/app/system/auth"
	"github.com/dalemusser/circlehub/internal/app/system/timeouts"
	"github.com/dalemusser/circlehub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the feature-level handler for ward administration.
// All operations are stake-admin only and scoped to the admin's stake.
type Handler struct {
	DB      *mongo.Database
	Log     *zap.Logger
	ErrLog  *uierrors.ErrorLogger
	Wards   *wardstore.Store
	Stakes  *stakestore.Store
	Members *memberstore.Store
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:      db,
		Log:     logger,
		ErrLog:  errLog,
		Wards:   wardstore.New(db),
		Stakes:  stakestore.New(db),
		Members: memberstore.New(db),
	}
}

// stakeFromRequest resolves the signed-in stake admin's stake. A false
// return means the response was already written.
func (h *Handler) stakeFromRequest(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Stake, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok || u.Role != auth.RoleStakeAdmin {
		uierrors.RenderForbidden(w, r, "Only stake admins can manage wards.")
		return models.Stake{}, false
	}
	sid, err := primitive.ObjectIDFromHex(u.StakeID)
	if err != nil {
		uierrors.RenderForbidden(w, r, "Your account is not linked to a stake.")
		return models.Stake{}, false
	}
	stake, err := h.Stakes.GetByID(ctx, sid)
	if err == stakestore.ErrNotFound {
		uierrors.RenderNotFound(w, r, "Stake not found.")
		return models.Stake{}, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error loading stake", err, "A database error occurred.")
		return models.Stake{}, false
	}
	return stake, true
}

// wardFromRequest resolves {wardID} inside the admin's stake.
func (h *Handler) wardFromRequest(ctx context.Context, w http.ResponseWriter, r *http.Request, stake models.Stake) (models.Ward, bool) {
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
	if ward.StakeID != stake.ID {
		uierrors.RenderNotFound(w, r, "Ward not found in your stake.")
		return models.Ward{}, false
	}
	return ward, true
}

// ServeList handles GET /wards.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	stake, ok := h.stakeFromRequest(ctx, w, r)
	if !ok {
		return
	}
	wards, err := h.Wards.ListByStake(ctx, stake.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error listing wards", err, "A database error occurred.")
		return
	}
	uierrors.JSON(w, http.StatusOK, map[string]any{
		"stake_id":   stake.ID.Hex(),
		"stake_name": stake.Name,
		"wards":      wards,
	})
}

// HandleCreate handles POST /wards with body {"name": "..."}.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	stake, ok := h.stakeFromRequest(ctx, w, r)
	if !ok {
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad create-ward payload", err, "Invalid request body.")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		uierrors.RenderBadRequest(w, r, "Ward name is required.")
		return
	}

	created, err := h.Wards.Create(ctx, models.Ward{StakeID: stake.ID, Name: name})
	if err != nil {
		h.writeWardError(w, r, "create ward failed", err)
		return
	}
	uierrors.JSON(w, http.StatusCreated, created)
}

// HandleRename handles POST /wards/{wardID}/rename.
func (h *Handler) HandleRename(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	stake, ok := h.stakeFromRequest(ctx, w, r)
	if !ok {
		return
	}
	ward, ok := h.wardFromRequest(ctx, w, r, stake)
	if !ok {
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad rename-ward payload", err, "Invalid request body.")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		uierrors.RenderBadRequest(w, r, "Ward name is required.")
		return
	}

	if err := h.Wards.Rename(ctx, ward.ID, name); err != nil {
		h.writeWardError(w, r, "rename ward failed", err)
		return
	}
	ward.Name = name
	uierrors.JSON(w, http.StatusOK, ward)
}

// HandleDelete handles POST /wards/{wardID}/delete. A ward is only
// deletable once its roster is empty; members must be transferred or
// deleted first.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	stake, ok := h.stakeFromRequest(ctx, w, r)
	if !ok {
		return
	}
	ward, ok := h.wardFromRequest(ctx, w, r, stake)
	if !ok {
		return
	}

	count, err := h.Members.CountByWard(ctx, stake.ID, ward.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error counting ward members", err, "A database error occurred.")
		return
	}
	if count > 0 {
		uierrors.RenderConflict(w, r, "This ward still has members. Transfer or delete them first.")
		return
	}

	if err := h.Wards.Delete(ctx, ward.ID); err != nil {
		h.writeWardError(w, r, "delete ward failed", err)
		return
	}
	uierrors.JSON(w, http.StatusOK, map[string]string{"deleted": ward.ID.Hex()})
}

func (h *Handler) writeWardError(w http.ResponseWriter, r *http.Request, logMsg string, err error) {
	switch {
	case errors.Is(err, wardstore.ErrNotFound):
		uierrors.RenderNotFound(w, r, err.Error())
	case errors.Is(err, wardstore.ErrDuplicateWardName):
		uierrors.RenderConflict(w, r, err.Error())
	default:
		h.ErrLog.LogServerError(w, r, logMsg, err, "A database error occurred.")
	}
}
