package config_test

import (
	"testing"
	"time"

	"github.com/lanyu617/next-chat/internal/auth/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-key-32-characters-long-12345")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "next-chat-auth", cfg.JWTIssuer)
	assert.Equal(t, time.Hour, cfg.AccessTokenTTL)
	assert.Equal(t, "auth-token", cfg.CookieName)
	assert.Equal(t, "/", cfg.CookiePath)
	assert.True(t, cfg.CookieHTTPOnly)
	assert.False(t, cfg.CookieSecure)
	assert.Equal(t, "Lax", cfg.CookieSameSite)
	assert.False(t, cfg.TrustInternalHeader)
}

func TestLoadConfig_MissingSecret(t *testing.T) {
	cfg, err := config.LoadConfig()
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoadConfig_NormalizesSameSite(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-key-32-characters-long-12345")
	t.Setenv("COOKIE_SAME_SITE", "strict")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "Strict", cfg.CookieSameSite)
}

func TestLoadConfig_RejectsBadSameSite(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-key-32-characters-long-12345")
	t.Setenv("COOKIE_SAME_SITE", "sideways")

	cfg, err := config.LoadConfig()
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoadConfig_RejectsNonPositiveTTL(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-key-32-characters-long-12345")
	t.Setenv("ACCESS_TOKEN_TTL", "-5m")

	cfg, err := config.LoadConfig()
	assert.Error(t, err)
	assert.Nil(t, cfg)
}
