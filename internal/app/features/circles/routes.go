// internal/app/features/circles/routes.go
package circles

import (
	"github.com/dalemusser/circlehub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the circle manage API. Typically:
// r.Mount("/circles", circles.Routes(handler, sessionMgr))
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole(auth.RoleStakeAdmin, auth.RoleWardAdmin))

		// SNAPSHOT
		pr.Get("/{wardID}", h.ServeManage)

		// MOVES
		pr.Post("/{wardID}/drop", h.HandleDrop)
		pr.Post("/{wardID}/move", h.HandleMove)

		// LIFECYCLE
		pr.Post("/{wardID}/new", h.HandleCreate)
		pr.Post("/{wardID}/{circleID}/rename", h.HandleRename)
		pr.Post("/{wardID}/{circleID}/delete", h.HandleDelete)
		pr.Post("/{wardID}/{circleID}/captain", h.HandleSetCaptain)
		pr.Post("/{wardID}/{circleID}/add", h.HandleAddMembers)
	})

	return r
}
