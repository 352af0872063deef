package auth

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

// LoginRateLimit bounds login attempts per client IP.
const LoginRateLimit = 10

// MountRoutes registers /auth endpoints. Registration accepts anonymous callers so the
// first account can be bootstrapped; the service enforces the admin rule afterwards.
func (h *Handler) MountRoutes(r chi.Router, mw *Middleware) {
	r.With(httprate.Limit(LoginRateLimit, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP))).
		Post("/login", h.handleLogin)
	r.With(mw.OptionalAuth).Post("/register", h.handleRegister)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate)
		r.Post("/logout", h.handleLogout)
		r.Get("/me", h.handleMe)
	})
}

// MountUserRoutes registers the admin-only /users endpoints.
func (h *Handler) MountUserRoutes(r chi.Router, mw *Middleware) {
	r.Use(mw.Authenticate, RequireAdmin)
	r.Get("/", h.listUsers)
	r.Post("/", h.handleRegister)
	r.Get("/{id}", h.showUser)
	r.Put("/{id}", h.updateUser)
	r.Delete("/{id}", h.deleteUser)
}
