// internal/app/features/members/handler.go
package members

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/circlehub/internal/app/features/errors"
	circlestore "github.com/dalemusser/circlehub/internal/app/store/circles"
	memberstore "github.com/dalemusser/circlehub/internal/app/store/members"
	wardstore "github.com/dalemusser/circlehub/internal/app/store/wards"
	"github.com/dalemusser/circlehub/internal/app/system/auth"
	"github.com/dalemusser/circlehub/internal/app/system/blobstore"
	"github.com/dalemusser/circlehub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the feature-level handler for ward rosters: member CRUD,
// CSV import, ward transfer, and profile pictures.
type Handler struct {
	DB      *mongo.Database
	Log     *zap.Logger
	ErrLog  *uierrors.ErrorLogger
	Members *memberstore.Store
	Circles *circlestore.Store
	Wards   *wardstore.Store
	Blobs   blobstore.Store
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, blobs blobstore.Store, logger *zap.Logger) *Handler {
	return &Handler{
		DB:      db,
		Log:     logger,
		ErrLog:  errLog,
		Members: memberstore.New(db),
		Circles: circlestore.New(db),
		Wards:   wardstore.New(db),
		Blobs:   blobs,
	}
}

// wardFromRequest resolves {wardID} to a ward the signed-in user may
// administer. A false return means the response was already written.
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
		uierrors.RenderForbidden(w, r, "You don't have permission to manage members.")
		return models.Ward{}, false
	}
	return ward, true
}

// memberFromRequest resolves {memberID} to a member of the given ward.
func (h *Handler) memberFromRequest(ctx context.Context, w http.ResponseWriter, r *http.Request, ward models.Ward) (models.Member, bool) {
	mid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "memberID"))
	if err != nil {
		uierrors.RenderBadRequest(w, r, "Invalid member ID.")
		return models.Member{}, false
	}
	m, err := h.Members.GetByID(ctx, mid)
	if err == memberstore.ErrNotFound {
		uierrors.RenderNotFound(w, r, "Member not found.")
		return models.Member{}, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error loading member", err, "A database error occurred.")
		return models.Member{}, false
	}
	if m.WardID != ward.ID {
		uierrors.RenderNotFound(w, r, "Member not found in this ward.")
		return models.Member{}, false
	}
	return m, true
}
