package auth_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sistema-orcamento/orcamento/internal/auth"
	"github.com/sistema-orcamento/orcamento/internal/shared"
	_ "github.com/sistema-orcamento/orcamento/testing"
)

type stubRepo struct {
	users    map[int64]*auth.User
	authored map[int64]int
	nextID   int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{users: map[int64]*auth.User{}, authored: map[int64]int{}, nextID: 1}
}

func (s *stubRepo) CountUsers(context.Context) (int, error) { return len(s.users), nil }

func (s *stubRepo) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (s *stubRepo) Get(_ context.Context, id int64) (*auth.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: user %d", shared.ErrNotFound, id)
	}
	cp := *u
	return &cp, nil
}

func (s *stubRepo) List(context.Context) ([]auth.User, error) {
	out := make([]auth.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	return out, nil
}

func (s *stubRepo) Create(_ context.Context, u auth.User) (*auth.User, error) {
	u.ID = s.nextID
	s.nextID++
	s.users[u.ID] = &u
	cp := u
	return &cp, nil
}

func (s *stubRepo) Update(_ context.Context, u auth.User) (*auth.User, error) {
	s.users[u.ID] = &u
	cp := u
	return &cp, nil
}

func (s *stubRepo) Delete(_ context.Context, id int64) error {
	delete(s.users, id)
	return nil
}

func (s *stubRepo) CountAuthoredQuotes(_ context.Context, id int64) (int, error) {
	return s.authored[id], nil
}

type fixture struct {
	repo    *stubRepo
	service *auth.Service
	tokens  *auth.TokenIssuer
	router  http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	tokens, err := auth.NewTokenIssuer("secret", time.Hour)
	require.NoError(t, err)
	repo := newStubRepo()
	service := auth.NewService(repo, tokens, auth.NewRevocations(client))
	mw := auth.NewMiddleware(service, nil)
	handler := auth.NewHandler(nil, service)

	r := chi.NewRouter()
	r.Route("/auth", func(r chi.Router) { handler.MountRoutes(r, mw) })
	r.Route("/users", func(r chi.Router) { handler.MountUserRoutes(r, mw) })
	return &fixture{repo: repo, service: service, tokens: tokens, router: r}
}

func (f *fixture) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func (f *fixture) login(t *testing.T, email, password string) string {
	t.Helper()
	res, err := f.service.Login(context.Background(), auth.LoginRequest{Email: email, Password: password})
	require.NoError(t, err)
	return res.Token
}

func TestTokenRoundTrip(t *testing.T) {
	tokens, err := auth.NewTokenIssuer("secret", 0)
	require.NoError(t, err)

	raw, expiresAt, err := tokens.Issue(auth.User{ID: 7, Role: shared.RoleAdmin})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(auth.DefaultTokenTTL), expiresAt, time.Minute)

	claims, err := tokens.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, shared.RoleAdmin, claims.Role)
	assert.NotEmpty(t, claims.ID)

	other, err := auth.NewTokenIssuer("another-secret", time.Hour)
	require.NoError(t, err)
	_, err = other.Parse(raw)
	assert.ErrorIs(t, err, shared.ErrUnauthorized)

	_, err = auth.NewTokenIssuer("", time.Hour)
	assert.Error(t, err)
}

func TestFirstRegistrationBecomesAdmin(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodPost, "/auth/register", "", `{"name":"Ana","email":"Ana@Example.com","password":"supersecret","role":"user"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created auth.User
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, shared.RoleAdmin, created.Role)
	assert.Equal(t, "ana@example.com", created.Email)
	assert.NotContains(t, rr.Body.String(), "password")

	// registration is closed to anonymous callers once a user exists
	rr = f.do(t, http.MethodPost, "/auth/register", "", `{"name":"Bia","email":"bia@example.com","password":"supersecret"}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRegisterRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.Register(ctx, nil, auth.RegisterRequest{Name: "Admin", Email: "admin@example.com", Password: "supersecret"})
	require.NoError(t, err)
	admin := f.login(t, "admin@example.com", "supersecret")

	rr := f.do(t, http.MethodPost, "/auth/register", admin, `{"name":"User","email":"user@example.com","password":"supersecret"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	userToken := f.login(t, "user@example.com", "supersecret")

	rr = f.do(t, http.MethodPost, "/auth/register", userToken, `{"name":"Other","email":"other@example.com","password":"supersecret"}`)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = f.do(t, http.MethodPost, "/auth/register", admin, `{"name":"Dup","email":"USER@example.com","password":"supersecret"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Duplicate")
}

func TestLoginRejectsBadPassword(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.Register(context.Background(), nil, auth.RegisterRequest{Name: "Ana", Email: "ana@example.com", Password: "supersecret"})
	require.NoError(t, err)

	rr := f.do(t, http.MethodPost, "/auth/login", "", `{"email":"ana@example.com","password":"wrongpass"}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = f.do(t, http.MethodPost, "/auth/login", "", `{"email":"nobody@example.com","password":"wrongpass"}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = f.do(t, http.MethodPost, "/auth/login", "", `{"email":"ana@example.com","password":"supersecret"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	var res auth.LoginResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.NotEmpty(t, res.Token)
}

func TestAuthenticateAcceptsLegacyHeaderAndHonoursLogout(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.Register(context.Background(), nil, auth.RegisterRequest{Name: "Ana", Email: "ana@example.com", Password: "supersecret"})
	require.NoError(t, err)
	token := f.login(t, "ana@example.com", "supersecret")

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set(auth.LegacyTokenHeader, token)
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/auth/me", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/auth/me", "garbage", "").Code)

	require.Equal(t, http.StatusNoContent, f.do(t, http.MethodPost, "/auth/logout", token, "").Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/auth/me", token, "").Code)
}

func TestUserRoutesAreAdminOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin, err := f.service.Register(ctx, nil, auth.RegisterRequest{Name: "Admin", Email: "admin@example.com", Password: "supersecret"})
	require.NoError(t, err)
	adminID := admin.Identity()
	user, err := f.service.Register(ctx, &adminID, auth.RegisterRequest{Name: "User", Email: "user@example.com", Password: "supersecret"})
	require.NoError(t, err)

	userToken := f.login(t, "user@example.com", "supersecret")
	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodGet, "/users/", userToken, "").Code)

	adminToken := f.login(t, "admin@example.com", "supersecret")
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/users/", adminToken, "").Code)

	f.repo.authored[user.ID] = 3
	rr := f.do(t, http.MethodDelete, fmt.Sprintf("/users/%d", user.ID), adminToken, "")
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = f.do(t, http.MethodDelete, fmt.Sprintf("/users/%d", admin.ID), adminToken, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	f.repo.authored[user.ID] = 0
	rr = f.do(t, http.MethodDelete, fmt.Sprintf("/users/%d", user.ID), adminToken, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
}
