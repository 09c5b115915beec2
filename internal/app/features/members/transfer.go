// internal/app/features/members/transfer.go
package members

import (
	"context"
	"encoding/json"
	"net/http"

	uierrors "github.com/dalemusser/circlehub/internal/app/features/errors"
	wardstore "github.com/dalemusser/circlehub/internal/app/store/wards"
	"github.com/dalemusser/circlehub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// HandleTransfer handles POST /members/{wardID}/{memberID}/transfer
// with body {"to_ward_id": "..."}.
//
// The member is pulled out of every source-ward circle before the ward
// fields change, so no circle in the old ward keeps a reference to a
// member who no longer belongs there.
func (h *Handler) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ward, ok := h.wardFromRequest(ctx, w, r)
	if !ok {
		return
	}
	m, ok := h.memberFromRequest(ctx, w, r, ward)
	if !ok {
		return
	}

	var req struct {
		ToWardID string `json:"to_ward_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad transfer payload", err, "Invalid request body.")
		return
	}
	toID, err := primitive.ObjectIDFromHex(req.ToWardID)
	if err != nil {
		uierrors.RenderBadRequest(w, r, "Invalid destination ward ID.")
		return
	}
	if toID == ward.ID {
		uierrors.RenderBadRequest(w, r, "Member is already in that ward.")
		return
	}

	toWard, err := h.Wards.GetByID(ctx, toID)
	if err == wardstore.ErrNotFound {
		uierrors.RenderNotFound(w, r, "Destination ward not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error loading destination ward", err, "A database error occurred.")
		return
	}
	// Transfers stay inside the admin's stake.
	if toWard.StakeID != ward.StakeID {
		uierrors.RenderForbidden(w, r, "You can only transfer members within your stake.")
		return
	}

	if err := h.Circles.RemoveMemberEverywhere(ctx, ward.StakeID, ward.ID, m.ID); err != nil {
		h.ErrLog.LogServerError(w, r, "failed to remove member from circles before transfer", err, "Failed to transfer member.")
		return
	}
	if err := h.Members.Transfer(ctx, m.ID, toWard.StakeID, toWard.ID); err != nil {
		h.writeMemberError(w, r, "transfer member failed", err)
		return
	}

	uierrors.JSON(w, http.StatusOK, map[string]string{
		"member_id":  m.ID.Hex(),
		"to_ward_id": toWard.ID.Hex(),
	})
}
