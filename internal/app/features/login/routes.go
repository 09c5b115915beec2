// internal/app/features/login/routes.go
package login

import "github.com/go-chi/chi/v5"

// Routes mounts the activation endpoint. It is deliberately outside
// any auth middleware: the invite token is the credential.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/activate", h.HandleActivate)
	return r
}
