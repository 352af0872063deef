package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/sistema-orcamento/orcamento/internal/auth"
	"github.com/sistema-orcamento/orcamento/internal/document"
	"github.com/sistema-orcamento/orcamento/internal/masterdata/clauses"
	"github.com/sistema-orcamento/orcamento/internal/masterdata/clients"
	"github.com/sistema-orcamento/orcamento/internal/masterdata/company"
	"github.com/sistema-orcamento/orcamento/internal/masterdata/products"
	"github.com/sistema-orcamento/orcamento/internal/observability"
	"github.com/sistema-orcamento/orcamento/internal/platform/httpx"
	"github.com/sistema-orcamento/orcamento/internal/sales/quotes"
	"github.com/sistema-orcamento/orcamento/internal/sales/templates"
	"github.com/sistema-orcamento/orcamento/jobs"
	"github.com/sistema-orcamento/orcamento/report"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a function to Pinger.
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics

	AuthMiddleware   *auth.Middleware
	AuthHandler      *auth.Handler
	CompanyHandler   *company.Handler
	ClientsHandler   *clients.Handler
	ProductsHandler  *products.Handler
	ClausesHandler   *clauses.Handler
	TemplatesHandler *templates.Handler
	QuotesHandler    *quotes.Handler
	DocumentHandler  *document.Handler
	ReportHandler    *report.Handler
	JobHandler       *jobs.Handler

	// Readiness lists the dependencies checked by /readyz.
	Readiness map[string]Pinger
}

// NewRouter constructs the chi.Router for the JSON API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", readinessHandler(params.Readiness, params.Logger))
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "no route for "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusMethodNotAllowed, "Method Not Allowed", r.Method+" is not supported here")
	})

	mw := params.AuthMiddleware
	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			params.AuthHandler.MountRoutes(r, mw)
		})
		r.Route("/users", func(r chi.Router) {
			params.AuthHandler.MountUserRoutes(r, mw)
		})

		r.Group(func(r chi.Router) {
			r.Use(mw.Authenticate)

			r.Route("/company", func(r chi.Router) {
				params.CompanyHandler.MountRoutes(r, auth.RequireAdmin)
			})
			r.Route("/clients", params.ClientsHandler.MountRoutes)
			r.Route("/products", params.ProductsHandler.MountRoutes)
			r.Route("/clauses", params.ClausesHandler.MountRoutes)
			r.Route("/templates", params.TemplatesHandler.MountRoutes)
			r.Route("/quotes", func(r chi.Router) {
				params.QuotesHandler.MountRoutes(r)
				if params.DocumentHandler != nil {
					params.DocumentHandler.MountRoutes(r)
				}
			})
			r.Route("/drafts", params.QuotesHandler.MountDraftRoutes)
			if params.ReportHandler != nil {
				r.Route("/pdf", params.ReportHandler.MountRoutes)
			}
			if params.JobHandler != nil {
				r.Route("/jobs", func(r chi.Router) {
					r.Use(auth.RequireAdmin)
					params.JobHandler.MountRoutes(r)
				})
			}
		})
	})

	return r
}

func readinessHandler(deps map[string]Pinger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		report := make(map[string]string, len(deps))
		for name, dep := range deps {
			if err := dep.Ping(ctx); err != nil {
				logger.Warn("readiness check failed", slog.String("dependency", name), slog.Any("error", err))
				report[name] = "down"
				status = http.StatusServiceUnavailable
				continue
			}
			report[name] = "up"
		}
		httpx.JSON(w, status, report)
	}
}
