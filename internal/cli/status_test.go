package cli

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func meServer(t *testing.T, validKey string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/me", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		if r.Header.Get("Authorization") != "Bearer "+validKey {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
			return
		}
		_, _ = w.Write([]byte(`{"email":"pro@example.com","tier":"pro"}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestStatusNoAPIKey(t *testing.T) {
	isolate(t)
	t.Setenv("ARB_SERVER_URL", "http://localhost:9999")

	out, err := executeCommand("status")
	require.NoError(t, err)
	assert.Contains(t, out, "Server:  http://localhost:9999")
	assert.Contains(t, out, "not configured")
	assert.Contains(t, out, "arb login")
}

func TestStatusAuthenticated(t *testing.T) {
	srv := meServer(t, "arb_validkey1234567890")
	isolate(t)
	t.Setenv("ARB_SERVER_URL", srv.URL)
	t.Setenv("ARB_API_KEY", "arb_validkey1234567890")

	out, err := executeCommand("status")
	require.NoError(t, err)
	assert.Contains(t, out, "API Key: arb_vali…")
	assert.Contains(t, out, "connected and authenticated")
	assert.Contains(t, out, "pro@example.com (pro)")
}

func TestStatusInvalidKey(t *testing.T) {
	srv := meServer(t, "arb_validkey1234567890")
	isolate(t)
	t.Setenv("ARB_SERVER_URL", srv.URL)
	t.Setenv("ARB_API_KEY", "arb_ab")

	out, err := executeCommand("status")
	require.NoError(t, err)
	assert.Contains(t, out, "API Key: arb_ab…")
	assert.Contains(t, out, "invalid API key")
}

func TestStatusUnreachable(t *testing.T) {
	isolate(t)
	t.Setenv("ARB_SERVER_URL", "http://127.0.0.1:1")
	t.Setenv("ARB_API_KEY", "arb_anykey")

	out, err := executeCommand("status")
	require.NoError(t, err)
	assert.Contains(t, out, "cannot reach server")
}
