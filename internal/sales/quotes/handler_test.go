package quotes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sistema-orcamento/orcamento/internal/shared"
)

func newTestRouter(f *fixture) http.Handler {
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), f.svc)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := shared.ContextWithIdentity(req.Context(), &shared.Identity{UserID: 9, Role: shared.RoleUser})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Route("/quotes", h.MountRoutes)
	r.Route("/drafts", h.MountDraftRoutes)
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandlerCreateAndApprove(t *testing.T) {
	f := newFixture()
	router := newTestRouter(f)

	rec := doJSON(t, router, http.MethodPost, "/quotes", scenarioRequest())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created Quote
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "245", created.Total.String())
	require.NotNil(t, created.AuthorID)
	assert.Equal(t, int64(9), *created.AuthorID)

	rec = doJSON(t, router, http.MethodPatch, "/quotes/1/status", ChangeStatusRequest{Status: StatusApproved})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodPut, "/quotes/1", scenarioRequest())
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestHandlerValidationAndNotFound(t *testing.T) {
	f := newFixture()
	router := newTestRouter(f)

	rec := doJSON(t, router, http.MethodPost, "/quotes", map[string]any{"client_id": 3, "items": []any{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/quotes/42", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/quotes/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerPriceDraft(t *testing.T) {
	f := newFixture()
	router := newTestRouter(f)

	rec := doJSON(t, router, http.MethodPost, "/drafts/price", DraftRequest{Items: scenarioRequest().Items})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var preview struct {
		Total string `json:"total"`
		Items []Item `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &preview))
	assert.Equal(t, "245", preview.Total)
	assert.Len(t, preview.Items, 2)

	_, err := f.svc.Get(context.Background(), 1)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
