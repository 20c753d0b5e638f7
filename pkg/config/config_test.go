package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validSecret = "0123456789abcdef0123456789abcdef"

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, DefaultBind, cfg.Server.Bind)
	assert.Equal(t, DefaultTokenTTL, cfg.Auth.TokenTTL)
	assert.Equal(t, DefaultDBPath, cfg.Storage.Path)
	assert.Equal(t, DefaultMaxConnections, cfg.Server.MaxConnections)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  bind: "0.0.0.0:8080"
  max_connections: 5
auth:
  jwt_secret: "`+validSecret+`"
  token_ttl: 1h
storage:
  path: "/tmp/test.db"
ai:
  model: "gemini-2.5-pro"
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Bind)
	assert.Equal(t, 5, cfg.Server.MaxConnections)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "/tmp/test.db", cfg.Storage.Path)
	assert.Equal(t, "gemini-2.5-pro", cfg.AI.Model)
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("DEVROOM_BIND", "127.0.0.1:9999")
	t.Setenv("DEVROOM_JWT_SECRET", validSecret)
	t.Setenv("DEVROOM_DB_PATH", "/tmp/env.db")
	t.Setenv("GOOGLE_AI_KEY", "test-key")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9999", cfg.Server.Bind)
	assert.Equal(t, validSecret, cfg.Auth.JWTSecret)
	assert.Equal(t, "/tmp/env.db", cfg.Storage.Path)
	assert.Equal(t, "test-key", cfg.AI.APIKey)
}

func TestPortEnvRewritesBind(t *testing.T) {
	t.Setenv("DEVROOM_JWT_SECRET", validSecret)
	t.Setenv("PORT", "4000")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":4000", cfg.Server.Bind)
}

func TestValidateRejectsMissingSecret(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt_secret")
}

func TestValidateRejectsShortSecret(t *testing.T) {
	cfg := Default()
	cfg.Auth.JWTSecret = "too-short"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least")
}

func TestValidateRejectsNonPositiveTTL(t *testing.T) {
	cfg := Default()
	cfg.Auth.JWTSecret = validSecret
	cfg.Auth.TokenTTL = 0
	require.Error(t, cfg.Validate())
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	require.Error(t, err)
}
