// internal/app/features/students/routes.go
package students

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.HandleList)
	r.Post("/", h.HandleCreate)
	r.Post("/import", h.HandleImport)
	r.Delete("/{id}", h.HandleDelete)
	return r
}
