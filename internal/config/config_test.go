package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, 8083, cfg.HTTP.Port)
	assert.Equal(t, 12*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, 720*time.Hour, cfg.Auth.RememberTTL)
	assert.Equal(t, "chat-images", cfg.Images.Bucket)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Empty(t, cfg.AMQP.URL)
}

func TestLoadMissingSecret(t *testing.T) {
	os.Unsetenv("JWT_SECRET")

	_, err := Load("")
	require.Error(t, err)
}

func TestLoadFromFile(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "env: local\nservice: pairchat-test\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "pairchat-test", cfg.Service)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestGoogleSignInConfig(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("GOOGLE_CLIENT_ID", "")
	t.Setenv("GOOGLE_CLIENT_SECRET", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.False(t, cfg.Auth.GoogleEnabled())
	assert.Equal(t, "http://localhost:8083/auth/oauth/google/callback", cfg.Auth.GoogleRedirectURL)

	t.Setenv("GOOGLE_CLIENT_ID", "client-1")
	t.Setenv("GOOGLE_CLIENT_SECRET", "secret-1")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.True(t, cfg.Auth.GoogleEnabled())
}
