// internal/app/features/members/routes.go
package members

import (
	"github.com/dalemusser/circlehub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts all member routes. Typically:
// r.Mount("/members", members.Routes(handler, sessionMgr))
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole(auth.RoleStakeAdmin, auth.RoleWardAdmin))

		// LIST / CREATE / IMPORT
		pr.Get("/{wardID}", h.ServeList)
		pr.Post("/{wardID}", h.HandleCreate)
		pr.Post("/{wardID}/upload_csv", h.HandleUploadCSV)

		// SINGLE MEMBER
		pr.Get("/{wardID}/{memberID}", h.ServeView)
		pr.Post("/{wardID}/{memberID}/edit", h.HandleEdit)
		pr.Post("/{wardID}/{memberID}/delete", h.HandleDelete)
		pr.Post("/{wardID}/{memberID}/transfer", h.HandleTransfer)
		pr.Post("/{wardID}/{memberID}/photo", h.HandleUploadPhoto)
	})

	return r
}
