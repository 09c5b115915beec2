// internal/app/features/members/crud.go
package members

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/circlehub/internal/app/features/errors"
	memberstore "github.com/dalemusser/circlehub/internal/app/store/members"
	"github.com/dalemusser/circlehub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/circlehub/internal/app/system/roster"
	"github.com/dalemusser/circlehub/internal/app/system/timeouts"
	"github.com/dalemusser/circlehub/internal/domain/models"
)

// memberForm is the JSON body for create and edit.
type memberForm struct {
	FullName           string `json:"full_name"`
	Email              string `json:"email"`
	Phone              string `json:"phone"`
	Address            string `json:"address"`
	DOB                string `json:"dob"`
	MaritalStatus      string `json:"marital_status"`
	NumChildren        int    `json:"num_children"`
	CulturalBackground string `json:"cultural_background"`
}

// apply copies sanitized form values onto a member. Free-text fields go
// through the HTML sanitizer so pasted markup cannot reach storage.
func (f memberForm) apply(m *models.Member) error {
	m.FullName = strings.TrimSpace(htmlsanitize.Sanitize(f.FullName))
	m.Email = strings.ToLower(strings.TrimSpace(f.Email))
	m.Phone = strings.TrimSpace(f.Phone)
	m.Address = strings.TrimSpace(htmlsanitize.Sanitize(f.Address))
	m.DOB = strings.TrimSpace(f.DOB)
	m.MaritalStatus = strings.ToLower(strings.TrimSpace(f.MaritalStatus))
	m.NumChildren = f.NumChildren
	m.CulturalBackground = strings.TrimSpace(htmlsanitize.Sanitize(f.CulturalBackground))

	if m.DOB != "" {
		if _, ok := roster.ParseDOB(m.DOB); !ok {
			return errors.New("DOB must be MM/DD/YYYY or YYYY-MM-DD")
		}
	}
	if m.NumChildren < 0 {
		return errors.New("children count cannot be negative")
	}
	return nil
}

// ServeList handles GET /members/{wardID}.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ward, ok := h.wardFromRequest(ctx, w, r)
	if !ok {
		return
	}

	members, err := h.Members.ListByWard(ctx, ward.StakeID, ward.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error listing members", err, "A database error occurred.")
		return
	}

	uierrors.JSON(w, http.StatusOK, map[string]any{
		"ward_id":   ward.ID.Hex(),
		"ward_name": ward.Name,
		"members":   members,
	})
}

// ServeView handles GET /members/{wardID}/{memberID}.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ward, ok := h.wardFromRequest(ctx, w, r)
	if !ok {
		return
	}
	m, ok := h.memberFromRequest(ctx, w, r, ward)
	if !ok {
		return
	}
	uierrors.JSON(w, http.StatusOK, m)
}

// HandleCreate handles POST /members/{wardID}.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ward, ok := h.wardFromRequest(ctx, w, r)
	if !ok {
		return
	}

	var form memberForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad create-member payload", err, "Invalid request body.")
		return
	}

	m := models.Member{StakeID: ward.StakeID, WardID: ward.ID}
	if err := form.apply(&m); err != nil {
		uierrors.RenderBadRequest(w, r, err.Error())
		return
	}

	created, err := h.Members.Create(ctx, m)
	if err != nil {
		h.writeMemberError(w, r, "create member failed", err)
		return
	}
	uierrors.JSON(w, http.StatusCreated, created)
}

// HandleEdit handles POST /members/{wardID}/{memberID}/edit.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ward, ok := h.wardFromRequest(ctx, w, r)
	if !ok {
		return
	}
	m, ok := h.memberFromRequest(ctx, w, r, ward)
	if !ok {
		return
	}

	var form memberForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad edit-member payload", err, "Invalid request body.")
		return
	}
	if err := form.apply(&m); err != nil {
		uierrors.RenderBadRequest(w, r, err.Error())
		return
	}

	if err := h.Members.Update(ctx, m); err != nil {
		h.writeMemberError(w, r, "update member failed", err)
		return
	}
	uierrors.JSON(w, http.StatusOK, m)
}

// HandleDelete handles POST /members/{wardID}/{memberID}/delete with
// body {"confirm": true}, the server-side backstop for the screen's
// "are you sure" dialog.
//
// The member leaves every circle first so the exclusivity invariant
// never dangles on a deleted id, then the document goes away.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
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
		Confirm bool `json:"confirm"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad delete payload", err, "Invalid request body.")
		return
	}
	if !req.Confirm {
		uierrors.RenderBadRequest(w, r, "Deleting a member requires confirmation.")
		return
	}

	if err := h.Circles.RemoveMemberEverywhere(ctx, ward.StakeID, ward.ID, m.ID); err != nil {
		h.ErrLog.LogServerError(w, r, "failed to remove member from circles", err, "Failed to delete member.")
		return
	}
	if err := h.Members.Delete(ctx, m.ID); err != nil {
		h.writeMemberError(w, r, "delete member failed", err)
		return
	}
	uierrors.JSON(w, http.StatusOK, map[string]string{"deleted": m.ID.Hex()})
}

// writeMemberError maps store failures onto HTTP statuses.
func (h *Handler) writeMemberError(w http.ResponseWriter, r *http.Request, logMsg string, err error) {
	switch {
	case errors.Is(err, memberstore.ErrNotFound):
		uierrors.RenderNotFound(w, r, err.Error())
	case errors.Is(err, memberstore.ErrMissingName), errors.Is(err, memberstore.ErrBadMaritalStatus):
		uierrors.RenderBadRequest(w, r, err.Error())
	case errors.Is(err, memberstore.ErrDuplicateEmail):
		uierrors.RenderConflict(w, r, err.Error())
	default:
		h.ErrLog.LogServerError(w, r, logMsg, err, "A database error occurred.")
	}
}
