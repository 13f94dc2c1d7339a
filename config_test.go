package auth_test

import (
	"strings"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	auth "github.com/parleychat/go-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setConfigEnv(t *testing.T) {
	t.Helper()

	secret := strings.Repeat("s", 32)
	t.Setenv("AUTH_ACCESS_TOKEN_SECRET", secret)
	t.Setenv("AUTH_REFRESH_TOKEN_SECRET", secret)
	t.Setenv("AUTH_CSRF_SECRET", secret)
	t.Setenv("AUTH_VERIFICATION_SECRET", secret)
	t.Setenv("AUTH_RESET_SECRET", secret)
}

func TestLoadConfigDefaults(t *testing.T) {
	setConfigEnv(t)

	cfg, err := auth.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, auth.DefaultAccessTokenTTL, cfg.GetAccessTokenTTL())
	assert.Equal(t, auth.DefaultRefreshTokenTTL, cfg.GetRefreshTokenTTL())
	assert.Equal(t, auth.DefaultCSRFTokenTTL, cfg.GetCSRFTokenTTL())
	assert.Equal(t, auth.DefaultKeyedTokenTTL, cfg.GetKeyedTokenTTL())
	assert.Equal(t, auth.DefaultMaxLoginAttempts, cfg.GetMaxLoginAttempts())
	assert.Equal(t, auth.DefaultLoginCooldown, cfg.GetLoginCooldown())
	assert.False(t, cfg.IsProduction())
	assert.Empty(t, cfg.GetAudience())
}

func TestLoadConfigOverrides(t *testing.T) {
	setConfigEnv(t)
	t.Setenv("AUTH_ACCESS_TOKEN_TTL", "30m")
	t.Setenv("AUTH_MAX_LOGIN_ATTEMPTS", "3")
	t.Setenv("AUTH_ISSUER", "chat-api")
	t.Setenv("AUTH_AUDIENCE", "chat-clients")
	t.Setenv("APP_ENV", "production")

	cfg, err := auth.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.GetAccessTokenTTL())
	assert.Equal(t, 3, cfg.GetMaxLoginAttempts())
	assert.Equal(t, "chat-api", cfg.GetIssuer())
	assert.Equal(t, []string{"chat-clients"}, cfg.GetAudience())
	assert.True(t, cfg.IsProduction())
}

func TestLoadConfigRejectsShortSecrets(t *testing.T) {
	setConfigEnv(t)
	t.Setenv("AUTH_RESET_SECRET", "short")

	_, err := auth.LoadConfig()
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Contains(t, richErr.Message, "AUTH_RESET_SECRET")
}
