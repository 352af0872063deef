package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sistema-orcamento/orcamento/internal/observability"
)

func TestLoadConfigRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := LoadConfig()
	require.Error(t, err)

	t.Setenv("JWT_SECRET", "a-long-enough-development-secret")
	t.Setenv("CORS_ORIGINS", "http://a.test,http://b.test")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, "Banco Itaú-341", cfg.Payment().Bank)
	assert.Equal(t, "43.037.584/0001-82", cfg.Payment().Pix)
	assert.False(t, cfg.ArchiveEnabled())
}

func TestLoadConfigRejectsShortSecretInProduction(t *testing.T) {
	t.Setenv("JWT_SECRET", "short")
	t.Setenv("APP_ENV", "production")
	_, err := LoadConfig()
	require.Error(t, err)
}

func newStackRouter(cfg *Config) http.Handler {
	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config:  cfg,
		Metrics: observability.NewMetrics(),
	}) {
		r.Use(mw)
	}
	r.Get("/api/ping", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("pong"))
	})
	return r
}

func TestMiddlewareStackSetsSecurityHeaders(t *testing.T) {
	router := newStackRouter(&Config{AppEnv: "development"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ping", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestMiddlewareStackAnswersCORSPreflight(t *testing.T) {
	router := newStackRouter(&Config{CORSOrigins: []string{"http://localhost:3000"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/ping", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "x-auth-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	req.Header.Set("Origin", "http://evil.test")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestReadinessReportsEachDependency(t *testing.T) {
	handler := readinessHandler(map[string]Pinger{
		"postgres": PingerFunc(func(context.Context) error { return nil }),
		"redis":    PingerFunc(func(context.Context) error { return errors.New("connection refused") }),
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "up", body["postgres"])
	assert.Equal(t, "down", body["redis"])
}

func TestLoggerTagsServiceAndHonoursLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&Config{ServiceName: "orcamento-api", AppEnv: "staging", LogFormat: "json", LogLevel: "warn"}, &buf)

	logger.Info("dropped")
	logger.Warn("kept", slog.Int64("quote_id", 42))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "orcamento-api", entry["service"])
	assert.Equal(t, "staging", entry["env"])
	assert.EqualValues(t, 42, entry["quote_id"])
}
