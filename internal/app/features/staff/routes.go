// internal/app/features/staff/routes.go
package staff

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.HandleList)
	r.Post("/", h.HandleCreate)
	r.Put("/{id}/role", h.HandleUpdateRole)
	r.Delete("/{id}", h.HandleDelete)
	return r
}
