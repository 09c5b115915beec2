// internal/app/features/invites/routes.go
package invites

import (
	"github.com/dalemusser/circlehub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole(auth.RoleStakeAdmin, auth.RoleWardAdmin))

		pr.Post("/{wardID}/circle/{circleID}", h.HandleInviteCircle)
		pr.Post("/{wardID}/member/{memberID}", h.HandleInviteMember)
	})

	return r
}
