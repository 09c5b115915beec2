// internal/app/features/stakes/handler.go
package stakes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/circlehub/internal/app/features/errors"
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

// Handler is the feature-level handler for stake administration.
type Handler struct {
	DB     *mongo.Database
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
	Stakes *stakestore.Store
	Wards  *wardstore.Store
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:     db,
		Log:    logger,
		ErrLog: errLog,
		Stakes: stakestore.New(db),
		Wards:  wardstore.New(db),
	}
}

// ServeList handles GET /stakes.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	stakes, err := h.Stakes.List(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error listing stakes", err, "A database error occurred.")
		return
	}
	uierrors.JSON(w, http.StatusOK, map[string]any{"stakes": stakes})
}

// HandleCreate handles POST /stakes with body {"name": "..."}.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad create-stake payload", err, "Invalid request body.")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		uierrors.RenderBadRequest(w, r, "Stake name is required.")
		return
	}

	created, err := h.Stakes.Create(ctx, models.Stake{Name: name})
	if err != nil {
		h.writeStakeError(w, r, "create stake failed", err)
		return
	}
	uierrors.JSON(w, http.StatusCreated, created)
}

// HandleRename handles POST /stakes/{stakeID}/rename. A stake admin
// may only rename their own stake.
func (h *Handler) HandleRename(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	stake, ok := h.ownStakeFromRequest(ctx, w, r)
	if !ok {
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad rename-stake payload", err, "Invalid request body.")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		uierrors.RenderBadRequest(w, r, "Stake name is required.")
		return
	}

	if err := h.Stakes.Rename(ctx, stake.ID, name); err != nil {
		h.writeStakeError(w, r, "rename stake failed", err)
		return
	}
	stake.Name = name
	uierrors.JSON(w, http.StatusOK, stake)
}

// HandleDelete handles POST /stakes/{stakeID}/delete. A stake is only
// deletable once it has no wards.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	stake, ok := h.ownStakeFromRequest(ctx, w, r)
	if !ok {
		return
	}

	wards, err := h.Wards.ListByStake(ctx, stake.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error listing wards", err, "A database error occurred.")
		return
	}
	if len(wards) > 0 {
		uierrors.RenderConflict(w, r, "This stake still has wards. Delete them first.")
		return
	}

	if err := h.Stakes.Delete(ctx, stake.ID); err != nil {
		h.writeStakeError(w, r, "delete stake failed", err)
		return
	}
	uierrors.JSON(w, http.StatusOK, map[string]string{"deleted": stake.ID.Hex()})
}

// ownStakeFromRequest resolves {stakeID} and checks it is the signed-in
// admin's stake.
func (h *Handler) ownStakeFromRequest(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Stake, bool) {
	sid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "stakeID"))
	if err != nil {
		uierrors.RenderBadRequest(w, r, "Invalid stake ID.")
		return models.Stake{}, false
	}
	u, ok := auth.CurrentUser(r)
	if !ok || u.StakeID != sid.Hex() {
		uierrors.RenderForbidden(w, r, "You don't have permission to manage this stake.")
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

func (h *Handler) writeStakeError(w http.ResponseWriter, r *http.Request, logMsg string, err error) {
	switch {
	case errors.Is(err, stakestore.ErrNotFound):
		uierrors.RenderNotFound(w, r, err.Error())
	case errors.Is(err, stakestore.ErrDuplicateStakeName):
		uierrors.RenderConflict(w, r, err.Error())
	default:
		h.ErrLog.LogServerError(w, r, logMsg, err, "A database error occurred.")
	}
}
