// internal/app/features/circles/move.go
package circles

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/circlehub/internal/app/features/errors"
	circlestore "github.com/dalemusser/circlehub/internal/app/store/circles"
	"github.com/dalemusser/circlehub/internal/app/system/assign"
	"github.com/dalemusser/circlehub/internal/app/system/collision"
	"github.com/dalemusser/circlehub/internal/app/system/timeouts"
	"github.com/dalemusser/circlehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// dropRequest is the payload the gesture layer posts when a drag ends:
// the drag session plus every drop region it had registered, in
// registration order.
type dropRequest struct {
	Session    collision.Session     `json:"session"`
	Droppables []collision.Droppable `json:"droppables"`
}

// moveRequest is the explicit (non-gesture) move payload.
type moveRequest struct {
	MemberID string `json:"member_id"`
	Dest     string `json:"dest"`      // "available" | "circle"
	CircleID string `json:"circle_id"` // required when dest == "circle"
}

// moveResponse reports the outcome plus the refreshed snapshot, so the
// screen re-renders from authoritative state after every move.
type moveResponse struct {
	Outcome string `json:"outcome"`
	manageResponse
}

// HandleDrop handles POST /circles/{wardID}/drop.
func (h *Handler) HandleDrop(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ward, ok := h.wardFromRequest(ctx, w, r)
	if !ok {
		return
	}

	var req dropRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad drop payload", err, "Invalid drop payload.")
		return
	}

	eng := h.loadEngine(ctx, w, r, ward)
	if eng == nil {
		return
	}

	outcome, err := eng.ResolveDrop(ctx, req.Session, req.Droppables)
	h.writeMoveResult(w, r, eng, ward, outcome, err)
}

// HandleMove handles POST /circles/{wardID}/move.
func (h *Handler) HandleMove(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ward, ok := h.wardFromRequest(ctx, w, r)
	if !ok {
		return
	}

	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad move payload", err, "Invalid move payload.")
		return
	}
	memberID, err := primitive.ObjectIDFromHex(req.MemberID)
	if err != nil {
		uierrors.RenderBadRequest(w, r, "Invalid member ID.")
		return
	}

	var dest collision.Destination
	switch req.Dest {
	case "available":
		dest = collision.Available()
	case "circle":
		dest = collision.ToCircle(req.CircleID)
	default:
		uierrors.RenderBadRequest(w, r, `Destination must be "available" or "circle".`)
		return
	}

	eng := h.loadEngine(ctx, w, r, ward)
	if eng == nil {
		return
	}

	outcome, err := eng.Move(ctx, memberID, dest)
	h.writeMoveResult(w, r, eng, ward, outcome, err)
}

// writeMoveResult maps an engine move result onto the HTTP response.
// Successful moves echo the request's facet filters into the refreshed
// snapshot so the admin's filtered view survives the move.
func (h *Handler) writeMoveResult(w http.ResponseWriter, r *http.Request, eng *assign.Engine, ward models.Ward, outcome string, err error) {
	if err != nil {
		switch {
		case errors.Is(err, assign.ErrMemberNotFound), errors.Is(err, assign.ErrCircleNotFound):
			uierrors.RenderNotFound(w, r, err.Error())
		case errors.Is(err, circlestore.ErrVersionConflict):
			h.ErrLog.LogConflict(w, r, "move lost an optimistic write race", err,
				"Someone else changed this circle. The screen has been refreshed.")
		default:
			h.ErrLog.LogServerError(w, r, "member move failed", err, "Failed to move member.")
		}
		return
	}

	uierrors.JSON(w, http.StatusOK, moveResponse{
		Outcome:        outcome,
		manageResponse: buildManageResponse(eng, ward, filtersFromQuery(r)),
	})
}
