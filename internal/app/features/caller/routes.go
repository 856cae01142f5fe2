// internal/app/features/caller/routes.go
package caller

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/calls", h.HandleSubmit)
	r.Get("/calls/recent", h.HandleRecent)
	return r
}
