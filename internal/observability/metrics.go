package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the API and the archive worker.
type Metrics struct {
	registry          *prometheus.Registry
	handler           http.Handler
	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	quoteTransitions  *prometheus.CounterVec
	documentsRendered *prometheus.CounterVec
	archiveJobs       *prometheus.CounterVec
}

// NewMetrics builds a private registry with the base collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orcamento_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "orcamento_http_request_duration_seconds",
		Help:    "HTTP request latency per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orcamento_quote_status_changes_total",
		Help: "Quote status transitions by target status.",
	}, []string{"status"})
	rendered := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orcamento_documents_rendered_total",
		Help: "Quote documents rendered by output format.",
	}, []string{"format"})
	archive := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orcamento_archive_jobs_total",
		Help: "Archive jobs processed by outcome.",
	}, []string{"outcome"})
	registry.MustRegister(requests, duration, transitions, rendered, archive)
	return &Metrics{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:     requests,
		requestDuration:   duration,
		quoteTransitions:  transitions,
		documentsRendered: rendered,
		archiveJobs:       archive,
	}
}

// Handler returns the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request count and latency per chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// QuoteStatusChanged counts a successful status transition.
func (m *Metrics) QuoteStatusChanged(status string) {
	if m == nil {
		return
	}
	m.quoteTransitions.WithLabelValues(status).Inc()
}

// DocumentRendered counts a rendered document in the given format (html, pdf).
func (m *Metrics) DocumentRendered(format string) {
	if m == nil {
		return
	}
	m.documentsRendered.WithLabelValues(format).Inc()
}

// ArchiveJob counts a processed archive task.
func (m *Metrics) ArchiveJob(success bool) {
	if m == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.archiveJobs.WithLabelValues(outcome).Inc()
}

// Registerer exposes the registry for extra collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
