package web

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evcraddock/rental-arb/internal/auth"
	"github.com/evcraddock/rental-arb/internal/db"
)

const adminEmail = "admin@example.com"

type testEnv struct {
	srv   *Server
	db    *sql.DB
	admin string // API key for the admin
	pro   string // API key for a pro user
	free  string // API key for a free user
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, d.Close()) })

	srv, err := NewServer(Options{
		DB: d,
		Auth: auth.Config{
			AdminEmail: adminEmail,
			DevMode:    true,
			BaseURL:    "http://localhost:8080",
		},
	})
	require.NoError(t, err)

	ctx := context.Background()
	_, err = srv.users.Add(ctx, "pro@example.com", "Pro", auth.TierPro)
	require.NoError(t, err)
	_, err = srv.users.Add(ctx, "free@example.com", "Free", auth.TierFree)
	require.NoError(t, err)

	env := &testEnv{srv: srv, db: d}
	env.admin = env.key(t, adminEmail)
	env.pro = env.key(t, "pro@example.com")
	env.free = env.key(t, "free@example.com")
	return env
}

func (e *testEnv) key(t *testing.T, email string) string {
	t.Helper()
	raw, _, err := e.srv.apiKeys.Create(context.Background(), "test", email)
	require.NoError(t, err)
	return raw
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	r := httptest.NewRequest(method, path, &buf)
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.srv.ServeHTTP(w, r)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, w)["error"]
}

func TestNewServerRequiresDB(t *testing.T) {
	_, err := NewServer(Options{})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestAPIRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/listings", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/api/listings", "arb_bogus", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBadKeyLimitIgnoresForwardedFor(t *testing.T) {
	env := newTestEnv(t)

	var blocked int
	for i := 0; i < 40; i++ {
		r := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		r.Header.Set("Authorization", "Bearer arb_bogus")
		r.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
		r.Header.Set("X-Real-IP", fmt.Sprintf("10.0.1.%d", i))
		w := httptest.NewRecorder()
		env.srv.ServeHTTP(w, r)
		if w.Code == http.StatusTooManyRequests {
			blocked++
		}
	}
	assert.GreaterOrEqual(t, blocked, 25)
}

func TestMe(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/me", env.pro, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[meResponse](t, w)
	assert.Equal(t, "pro@example.com", me.Email)
	assert.Equal(t, auth.TierPro, me.Tier)

	w = env.do(t, http.MethodGet, "/api/me", env.admin, nil)
	assert.Equal(t, auth.TierAdmin, decode[meResponse](t, w).Tier)
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/api/nothing", env.admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORS(t *testing.T) {
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, d.Close()) })

	srv, err := NewServer(Options{
		DB:             d,
		Auth:           auth.Config{BaseURL: "http://localhost:8080", DevMode: true},
		AllowedOrigins: []string{"https://app.example.com"},
	})
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodOptions, "/api/listings", nil)
	r.Header.Set("Origin", "https://app.example.com")
	r.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, r)

	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}
