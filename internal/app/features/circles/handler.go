// internal/app/features/circles/handler.go
package circles

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/circlehub/internal/app/features/errors"
	wardstore "github.com/dalemusser/circlehub/internal/app/store/wards"
	"github.com/dalemusser/circlehub/internal/app/system/assign"
	"github.com/dalemusser/circlehub/internal/app/system/auth"
	"github.com/dalemusser/circlehub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the feature-level handler for the circle manage screen.
// Every request loads a fresh per-ward assignment engine; the browser
// holds no authoritative state beyond the last snapshot it was sent.
type Handler struct {
	DB     *mongo.Database
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
	Wards  *wardstore.Store

	// RemoveOnEmptyDrop mirrors the configured drop-on-nothing policy
	// into each engine load.
	RemoveOnEmptyDrop bool
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, removeOnEmptyDrop bool, logger *zap.Logger) *Handler {
	return &Handler{
		DB:                db,
		Log:               logger,
		ErrLog:            errLog,
		Wards:             wardstore.New(db),
		RemoveOnEmptyDrop: removeOnEmptyDrop,
	}
}

// wardFromRequest resolves the {wardID} URL param to a ward the
// signed-in user may manage: stake admins reach any ward in their
// stake, ward admins only their own. A false return means the response
// has already been written.
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
		uierrors.RenderForbidden(w, r, "You don't have permission to manage circles.")
		return models.Ward{}, false
	}
	return ward, true
}

// loadEngine builds the assignment engine for one ward. A nil return
// means the response has already been written.
func (h *Handler) loadEngine(ctx context.Context, w http.ResponseWriter, r *http.Request, ward models.Ward) *assign.Engine {
	eng, err := assign.Load(ctx, assign.NewMongoStore(h.DB), ward.StakeID, ward.ID, h.Log,
		assign.WithRemoveOnEmptyDrop(h.RemoveOnEmptyDrop))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "failed to load ward assignment state", err, "Failed to load ward data.")
		return nil
	}
	return eng
}
