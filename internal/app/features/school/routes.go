// internal/app/features/school/routes.go
package school

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Put("/password", h.HandleChangePassword)
	r.Post("/clear-history", h.HandleClearHistory)
	return r
}
