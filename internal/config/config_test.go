package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "access_token", cfg.Auth.AccessCookie)
	assert.Equal(t, "/login", cfg.Auth.LoginPath)
	assert.Contains(t, cfg.Auth.AdminPrefixes, "/admin")
	assert.Equal(t, 2*time.Hour, cfg.Planner.DraftTTL)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("BACKEND_BASE_URL", "https://api.sangihetrip.id/v1/")
	t.Setenv("AUTH_PROTECTED_PREFIXES", "/profile, /bookings ,")
	t.Setenv("PLANNER_DRAFT_TTL", "45m")
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("ENVIRONMENT", "production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "https://api.sangihetrip.id/v1", cfg.Backend.BaseURL)
	assert.Equal(t, []string{"/profile", "/bookings"}, cfg.Auth.ProtectedPrefixes)
	assert.Equal(t, 45*time.Minute, cfg.Planner.DraftTTL)
	assert.Equal(t, 0, cfg.Redis.DB)
	assert.True(t, cfg.IsProduction())
}

func TestLoad_YAMLFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	content := []byte(`
server:
  port: "7000"
  static_dir: /srv/web
backend:
  base_url: http://backend:3000
  timeout: 3s
auth:
  guest_only_paths: [/masuk, /daftar]
planner:
  draft_ttl: 30m
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SERVER_PORT", "7001")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "7001", cfg.Server.Port, "env wins over file")
	assert.Equal(t, "/srv/web", cfg.Server.StaticDir)
	assert.Equal(t, "http://backend:3000", cfg.Backend.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, []string{"/masuk", "/daftar"}, cfg.Auth.GuestOnlyPaths)
	assert.Equal(t, 30*time.Minute, cfg.Planner.DraftTTL)
	assert.Equal(t, "access_token", cfg.Auth.AccessCookie, "unset keys keep defaults")
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := Load()
	require.Error(t, err)
}
