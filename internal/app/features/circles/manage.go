// internal/app/features/circles/manage.go
package circles

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/circlehub/internal/app/features/errors"
	"github.com/dalemusser/circlehub/internal/app/system/timeouts"
)

// ServeManage handles GET /circles/{wardID}.
//
// It returns the full manage-screen snapshot: every circle with its
// members, plus the available pool with the requested facet filters
// applied. Filter query parameters: age_min, age_max, has_children,
// marital_status, has_email, has_logged_in, cultural_background,
// sort_by.
func (h *Handler) ServeManage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ward, ok := h.wardFromRequest(ctx, w, r)
	if !ok {
		return
	}
	eng := h.loadEngine(ctx, w, r, ward)
	if eng == nil {
		return
	}

	uierrors.JSON(w, http.StatusOK, buildManageResponse(eng, ward, filtersFromQuery(r)))
}
