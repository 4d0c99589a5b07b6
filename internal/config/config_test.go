package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/chat")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "embedded-chat", cfg.App.Name)
	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, 30*time.Second, cfg.Relay.Timeout)
	assert.Equal(t, "Embedded-Chat/1.0", cfg.Relay.UserAgent)
	assert.Equal(t, 10, cfg.Slug.Length)
	assert.Equal(t, 10, cfg.Slug.MaxAttempts)
	assert.Equal(t, 5*time.Minute, cfg.Redis.PublicCacheTTL)
	assert.Equal(t, 24*time.Hour, cfg.Security.JWTExpiry)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "sqlite://file:test?mode=memory")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("RELAY_TIMEOUT_SECONDS", "5")
	t.Setenv("SLUG_LENGTH", "12")
	t.Setenv("APP_DEBUG", "true")
	t.Setenv("ENCRYPTION_KEY", "k")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.Relay.Timeout)
	assert.Equal(t, 12, cfg.Slug.Length)
	assert.True(t, cfg.App.Debug)
	assert.Equal(t, "k", cfg.Security.EncryptionKey)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Relay: RelayConfig{Timeout: 0},
		Slug:  SlugConfig{Length: 4, MaxAttempts: 0},
	}

	err := cfg.Validate()
	require.Error(t, err)
	for _, msg := range []string{
		"DATABASE_URL is required",
		"JWT_SECRET is required",
		"RELAY_TIMEOUT_SECONDS must be positive",
		"SLUG_LENGTH must be at least 6",
		"SLUG_MAX_ATTEMPTS must be positive",
	} {
		assert.Contains(t, err.Error(), msg)
	}
}
