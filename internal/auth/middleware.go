package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sistema-orcamento/orcamento/internal/platform/httpx"
	"github.com/sistema-orcamento/orcamento/internal/shared"
)

// LegacyTokenHeader is accepted alongside the Authorization bearer header.
const LegacyTokenHeader = "x-auth-token"

type claimsContextKey struct{}

// ClaimsFromContext returns the verified claims of the request, if any.
func ClaimsFromContext(ctx context.Context) *Claims {
	c, _ := ctx.Value(claimsContextKey{}).(*Claims)
	return c
}

// Middleware resolves bearer credentials into request identities.
type Middleware struct {
	service *Service
	logger  *slog.Logger
}

func NewMiddleware(service *Service, logger *slog.Logger) *Middleware {
	return &Middleware{service: service, logger: logger}
}

// Authenticate rejects requests without a valid credential.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := tokenFromRequest(r)
		if raw == "" {
			httpx.RespondError(w, m.logger, fmt.Errorf("%w: missing token", shared.ErrUnauthorized))
			return
		}
		claims, err := m.service.Authenticate(r.Context(), raw)
		if err != nil {
			httpx.RespondError(w, m.logger, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
	})
}

// OptionalAuth attaches the identity when a valid credential is present and
// otherwise lets the request through anonymously.
func (m *Middleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if raw := tokenFromRequest(r); raw != "" {
			if claims, err := m.service.Authenticate(r.Context(), raw); err == nil {
				r = r.WithContext(withClaims(r.Context(), claims))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin gates a route to identities holding the admin role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := shared.IdentityFromContext(r.Context())
		if id == nil {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing token")
			return
		}
		if !id.IsAdmin() {
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "administrator role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func withClaims(ctx context.Context, claims *Claims) context.Context {
	id := claims.Identity()
	ctx = context.WithValue(ctx, claimsContextKey{}, claims)
	return shared.ContextWithIdentity(ctx, &id)
}

func tokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return strings.TrimSpace(r.Header.Get(LegacyTokenHeader))
}
