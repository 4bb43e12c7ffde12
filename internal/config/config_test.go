package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	t.Setenv("HOME", dir)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	dir := chdirTemp(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "http://localhost:8080", cfg.Server.BaseURL)
	assert.False(t, cfg.Server.DevMode)
	assert.Equal(t, filepath.Join(dir, ".rental-arb", "arb.db"), cfg.Store.Path)
	assert.Equal(t, "587", cfg.SMTP.Port)
	assert.InDelta(t, 2.0, cfg.Market.RequestsPerSecond, 0.001)
	assert.Equal(t, 30*time.Second, cfg.Market.Timeout())
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL())
	assert.Empty(t, cfg.Cache.RedisURL)
	assert.Equal(t, "@daily", cfg.Scoring.RescoreSchedule)
	assert.Equal(t, 4, cfg.Scoring.Concurrency)
	assert.Equal(t, 10*time.Second, cfg.Analysis.SaveTimeout())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
server:
  port: 9090
  dev_mode: true
store:
  path: /tmp/arb-test.db
cache:
  redis_url: redis://localhost:6379/2
  ttl_hours: 6
scoring:
  rescore_schedule: "0 3 * * *"
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "arb.yaml"), []byte(yaml), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.Server.DevMode)
	assert.Equal(t, "/tmp/arb-test.db", cfg.Store.Path)
	assert.Equal(t, "redis://localhost:6379/2", cfg.Cache.RedisURL)
	assert.Equal(t, 6*time.Hour, cfg.Cache.TTL())
	assert.Equal(t, "0 3 * * *", cfg.Scoring.RescoreSchedule)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Defaults still apply for unset values
	assert.Equal(t, 4, cfg.Scoring.Concurrency)
}

func TestLoadExplicitPath(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("auth:\n  admin_email: admin@example.com\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", cfg.Auth.AdminEmail)
}

func TestLoadExplicitPathMissing(t *testing.T) {
	dir := chdirTemp(t)

	_, err := Load(filepath.Join(dir, "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "arb.yaml"), []byte("server:\n  port: 9090\n"), 0o644))

	t.Setenv("ARB_SERVER_PORT", "7070")
	t.Setenv("ARB_MARKET_API_KEY", "mk-secret")
	t.Setenv("ARB_AUTH_ADMIN_EMAIL", "ops@example.com")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "mk-secret", cfg.Market.APIKey)
	assert.Equal(t, "ops@example.com", cfg.Auth.AdminEmail)
}
