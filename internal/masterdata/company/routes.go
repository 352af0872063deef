package company

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the profile endpoints; updates go through adminOnly.
func (h *Handler) MountRoutes(r chi.Router, adminOnly func(http.Handler) http.Handler) {
	r.Get("/", h.Show)
	r.With(adminOnly).Put("/", h.Update)
}
