package auth

import (
	"os"
	"strconv"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/joho/godotenv"
)

// Config is the immutable runtime configuration contract. Values are
// loaded once at startup; nothing mutates them afterwards.
type Config interface {
	GetAccessTokenSecret() string
	GetRefreshTokenSecret() string
	GetCSRFSecret() string
	GetVerificationSecret() string
	GetResetSecret() string
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
	GetCSRFTokenTTL() time.Duration
	GetKeyedTokenTTL() time.Duration
	GetIssuer() string
	GetAudience() []string
	GetMaxLoginAttempts() int
	GetLoginCooldown() string
	IsProduction() bool
}

// Default TTLs per token class.
const (
	DefaultAccessTokenTTL   = 15 * time.Minute
	DefaultRefreshTokenTTL  = 7 * 24 * time.Hour
	DefaultCSRFTokenTTL     = 1 * time.Hour
	DefaultKeyedTokenTTL    = 1 * time.Hour
	DefaultMaxLoginAttempts = 5
	DefaultLoginCooldown    = "15m"
)

type envConfig struct {
	accessSecret       string
	refreshSecret      string
	csrfSecret         string
	verificationSecret string
	resetSecret        string
	accessTTL          time.Duration
	refreshTTL         time.Duration
	csrfTTL            time.Duration
	keyedTTL           time.Duration
	issuer             string
	audience           []string
	maxLoginAttempts   int
	loginCooldown      string
	production         bool
}

var _ Config = (*envConfig)(nil)

// LoadConfig reads configuration from the environment, merging in any
// .env files given. Missing or short secrets fail load, running with a
// guessable HMAC key is worse than not starting.
func LoadConfig(envFiles ...string) (Config, error) {
	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to load env file")
		}
	}

	cfg := &envConfig{
		accessSecret:       os.Getenv("AUTH_ACCESS_TOKEN_SECRET"),
		refreshSecret:      os.Getenv("AUTH_REFRESH_TOKEN_SECRET"),
		csrfSecret:         os.Getenv("AUTH_CSRF_SECRET"),
		verificationSecret: os.Getenv("AUTH_VERIFICATION_SECRET"),
		resetSecret:        os.Getenv("AUTH_RESET_SECRET"),
		issuer:             os.Getenv("AUTH_ISSUER"),
		accessTTL:          envDuration("AUTH_ACCESS_TOKEN_TTL", DefaultAccessTokenTTL),
		refreshTTL:         envDuration("AUTH_REFRESH_TOKEN_TTL", DefaultRefreshTokenTTL),
		csrfTTL:            envDuration("AUTH_CSRF_TOKEN_TTL", DefaultCSRFTokenTTL),
		keyedTTL:           envDuration("AUTH_KEYED_TOKEN_TTL", DefaultKeyedTokenTTL),
		maxLoginAttempts:   envInt("AUTH_MAX_LOGIN_ATTEMPTS", DefaultMaxLoginAttempts),
		loginCooldown:      envString("AUTH_LOGIN_COOLDOWN", DefaultLoginCooldown),
		production:         os.Getenv("APP_ENV") == "production",
	}

	if aud := os.Getenv("AUTH_AUDIENCE"); aud != "" {
		cfg.audience = []string{aud}
	}

	secrets := map[string]string{
		"AUTH_ACCESS_TOKEN_SECRET":  cfg.accessSecret,
		"AUTH_REFRESH_TOKEN_SECRET": cfg.refreshSecret,
		"AUTH_CSRF_SECRET":          cfg.csrfSecret,
		"AUTH_VERIFICATION_SECRET":  cfg.verificationSecret,
		"AUTH_RESET_SECRET":         cfg.resetSecret,
	}
	for name, value := range secrets {
		if len(value) < 32 {
			return nil, goerrors.New(
				"secret "+name+" must be at least 32 bytes",
				goerrors.CategoryOperation,
			)
		}
	}

	return cfg, nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func (c *envConfig) GetAccessTokenSecret() string  { return c.accessSecret }
func (c *envConfig) GetRefreshTokenSecret() string { return c.refreshSecret }
func (c *envConfig) GetCSRFSecret() string         { return c.csrfSecret }
func (c *envConfig) GetVerificationSecret() string { return c.verificationSecret }
func (c *envConfig) GetResetSecret() string        { return c.resetSecret }

func (c *envConfig) GetAccessTokenTTL() time.Duration  { return c.accessTTL }
func (c *envConfig) GetRefreshTokenTTL() time.Duration { return c.refreshTTL }
func (c *envConfig) GetCSRFTokenTTL() time.Duration    { return c.csrfTTL }
func (c *envConfig) GetKeyedTokenTTL() time.Duration   { return c.keyedTTL }

func (c *envConfig) GetIssuer() string        { return c.issuer }
func (c *envConfig) GetAudience() []string    { return c.audience }
func (c *envConfig) GetMaxLoginAttempts() int { return c.maxLoginAttempts }
func (c *envConfig) GetLoginCooldown() string { return c.loginCooldown }
func (c *envConfig) IsProduction() bool       { return c.production }
