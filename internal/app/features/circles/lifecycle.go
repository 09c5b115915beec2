// internal/app/features/circles/lifecycle.go
package circles

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/circlehub/internal/app/features/errors"
	circlestore "github.com/dalemusser/circlehub/internal/app/store/circles"
	"github.com/dalemusser/circlehub/internal/app/system/assign"
	"github.com/dalemusser/circlehub/internal/app/system/roster"
	"github.com/dalemusser/circlehub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// HandleCreate handles POST /circles/{wardID}/new. The new circle gets
// a default "Circle N" name; renaming is a separate call.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ward, ok := h.wardFromRequest(ctx, w, r)
	if !ok {
		return
	}
	eng := h.loadEngine(ctx, w, r, ward)
	if eng == nil {
		return
	}

	if _, err := eng.CreateCircle(ctx); err != nil {
		h.writeLifecycleError(w, r, "create circle failed", err, "Failed to create circle.")
		return
	}
	uierrors.JSON(w, http.StatusOK, buildManageResponse(eng, ward, roster.DefaultFilters()))
}

// HandleRename handles POST /circles/{wardID}/{circleID}/rename with
// body {"name": "..."}. Empty and unchanged names are quietly accepted
// without a write.
func (h *Handler) HandleRename(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ward, ok := h.wardFromRequest(ctx, w, r)
	if !ok {
		return
	}
	circleID, ok := circleIDFromRequest(w, r)
	if !ok {
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad rename payload", err, "Invalid request body.")
		return
	}

	eng := h.loadEngine(ctx, w, r, ward)
	if eng == nil {
		return
	}
	if err := eng.RenameCircle(ctx, circleID, req.Name); err != nil {
		h.writeLifecycleError(w, r, "rename circle failed", err, "Failed to rename circle.")
		return
	}
	uierrors.JSON(w, http.StatusOK, buildManageResponse(eng, ward, roster.DefaultFilters()))
}

// HandleDelete handles POST /circles/{wardID}/{circleID}/delete with
// body {"confirm": true}. The confirmation flag is the server-side
// backstop for the screen's "are you sure" dialog; the circle's
// members return to the available pool.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ward, ok := h.wardFromRequest(ctx, w, r)
	if !ok {
		return
	}
	circleID, ok := circleIDFromRequest(w, r)
	if !ok {
		return
	}

	var req struct {
		Confirm bool `json:"confirm"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad delete payload", err, "Invalid request body.")
		return
	}
	if !req.Confirm {
		uierrors.RenderBadRequest(w, r, "Deleting a circle requires confirmation.")
		return
	}

	eng := h.loadEngine(ctx, w, r, ward)
	if eng == nil {
		return
	}
	if err := eng.DeleteCircle(ctx, circleID); err != nil {
		h.writeLifecycleError(w, r, "delete circle failed", err, "Failed to delete circle.")
		return
	}
	uierrors.JSON(w, http.StatusOK, buildManageResponse(eng, ward, roster.DefaultFilters()))
}

// HandleSetCaptain handles POST /circles/{wardID}/{circleID}/captain
// with body {"member_id": "..."} or {"member_id": null} to clear.
func (h *Handler) HandleSetCaptain(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ward, ok := h.wardFromRequest(ctx, w, r)
	if !ok {
		return
	}
	circleID, ok := circleIDFromRequest(w, r)
	if !ok {
		return
	}

	var req struct {
		MemberID *string `json:"member_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad captain payload", err, "Invalid request body.")
		return
	}

	var captainID *primitive.ObjectID
	if req.MemberID != nil {
		id, err := primitive.ObjectIDFromHex(*req.MemberID)
		if err != nil {
			uierrors.RenderBadRequest(w, r, "Invalid member ID.")
			return
		}
		captainID = &id
	}

	eng := h.loadEngine(ctx, w, r, ward)
	if eng == nil {
		return
	}
	if err := eng.SetCaptain(ctx, circleID, captainID); err != nil {
		h.writeLifecycleError(w, r, "set captain failed", err, "Failed to set captain.")
		return
	}
	uierrors.JSON(w, http.StatusOK, buildManageResponse(eng, ward, roster.DefaultFilters()))
}

// HandleAddMembers handles POST /circles/{wardID}/{circleID}/add with
// body {"member_ids": [...]}, the bulk path behind multi-select add.
func (h *Handler) HandleAddMembers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ward, ok := h.wardFromRequest(ctx, w, r)
	if !ok {
		return
	}
	circleID, ok := circleIDFromRequest(w, r)
	if !ok {
		return
	}

	var req struct {
		MemberIDs []string `json:"member_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad add-members payload", err, "Invalid request body.")
		return
	}
	ids := make([]primitive.ObjectID, 0, len(req.MemberIDs))
	for _, s := range req.MemberIDs {
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			uierrors.RenderBadRequest(w, r, "Invalid member ID: "+s)
			return
		}
		ids = append(ids, id)
	}

	eng := h.loadEngine(ctx, w, r, ward)
	if eng == nil {
		return
	}
	if err := eng.AddMembers(ctx, circleID, ids); err != nil {
		h.writeLifecycleError(w, r, "bulk add failed", err, "Failed to add members.")
		return
	}
	uierrors.JSON(w, http.StatusOK, buildManageResponse(eng, ward, roster.DefaultFilters()))
}

func circleIDFromRequest(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "circleID"))
	if err != nil {
		uierrors.RenderBadRequest(w, r, "Invalid circle ID.")
		return primitive.NilObjectID, false
	}
	return id, true
}

// writeLifecycleError maps engine/store failures onto HTTP statuses.
func (h *Handler) writeLifecycleError(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg string) {
	switch {
	case errors.Is(err, assign.ErrCircleNotFound), errors.Is(err, assign.ErrMemberNotFound):
		uierrors.RenderNotFound(w, r, err.Error())
	case errors.Is(err, assign.ErrCaptainNotMember), errors.Is(err, circlestore.ErrCaptainNotMember):
		uierrors.RenderBadRequest(w, r, err.Error())
	case errors.Is(err, circlestore.ErrDuplicateCircleName):
		uierrors.RenderConflict(w, r, err.Error())
	case errors.Is(err, circlestore.ErrVersionConflict):
		h.ErrLog.LogConflict(w, r, logMsg, err,
			"Someone else changed this circle. The screen has been refreshed.")
	default:
		h.ErrLog.LogServerError(w, r, logMsg, err, userMsg)
	}
}
