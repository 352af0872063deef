package document

import "github.com/go-chi/chi/v5"

// MountRoutes registers document routes under a quote router (/quotes).
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{id}/document", h.ShowView)
	r.Get("/{id}/document.html", h.ShowHTML)
	r.Get("/{id}/document.pdf", h.ShowPDF)
	r.Get("/{id}/archive", h.ShowArchive)
}
