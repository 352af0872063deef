package quotes

import "github.com/go-chi/chi/v5"

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Show)
	r.Put("/{id}", h.Update)
	r.Patch("/{id}/status", h.ChangeStatus)
	r.Delete("/{id}", h.Delete)
}

// MountDraftRoutes exposes stateless draft pricing.
func (h *Handler) MountDraftRoutes(r chi.Router) {
	r.Post("/price", h.PriceDraft)
}
