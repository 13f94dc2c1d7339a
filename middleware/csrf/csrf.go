// Package csrf implements double-submit CSRF protection: the client
// must present the same token in a cookie and a request header, and
// the token itself is an HMAC-signed value bound to the session user.
// Every successful validation rotates the token.
package csrf

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/goliatone/go-router"
)

var (
	ErrTokenMissing  = errors.New("CSRF token missing")
	ErrTokenMismatch = errors.New("CSRF token mismatch")
)

// DefaultCookieName matches the auth cookie contract.
const DefaultCookieName = "x-csrf-token"

// DefaultHeaderName is where clients echo the cookie value.
const DefaultHeaderName = "x-csrf-token"

// DefaultContextKey is where the rotated token is stored in context.
const DefaultContextKey = "csrf_token"

// TokenCodec mirrors the keyed token codec of the parent package
// without importing it, keeping the middleware free of import cycles.
type TokenCodec interface {
	Issue(subjectID string) (string, error)
	Verify(token, subjectID string) (string, bool)
}

// Config defines the configuration for CSRF middleware
type Config struct {
	// Skip defines a function to skip middleware
	Skip func(router.Context) bool

	// Codec signs and verifies the token values
	Codec TokenCodec

	// SubjectResolver extracts the user id the token is bound to,
	// typically from the authenticated session in context locals
	SubjectResolver func(router.Context) string

	// CookieName defines the cookie carrying the token
	CookieName string

	// HeaderName defines the header clients echo the cookie into
	HeaderName string

	// ContextKey defines the key for storing the token in context
	ContextKey string

	// SafeMethods defines HTTP methods that don't require CSRF protection
	SafeMethods []string

	// TokenTTL bounds the rotated cookie's lifetime
	TokenTTL time.Duration

	// SecureCookies sets the Secure attribute on rotated cookies
	SecureCookies bool

	// ErrorHandler defines the error handler
	ErrorHandler func(router.Context, error) error
}

func configDefault(config ...Config) Config {
	cfg := Config{}
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}

	if cfg.HeaderName == "" {
		cfg.HeaderName = DefaultHeaderName
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = DefaultContextKey
	}

	if len(cfg.SafeMethods) == 0 {
		cfg.SafeMethods = []string{"GET", "HEAD", "OPTIONS"}
	}

	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = time.Hour
	}

	if cfg.SubjectResolver == nil {
		cfg.SubjectResolver = defaultSubjectResolver
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = defaultErrorHandler
	}

	return cfg
}

// New creates a new CSRF middleware
func New(config ...Config) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		cfg := configDefault(config...)

		return func(ctx router.Context) error {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return ctx.Next()
			}

			// safe methods don't require validation
			method := strings.ToUpper(ctx.Method())
			if slices.Contains(cfg.SafeMethods, method) {
				return ctx.Next()
			}

			if err := validate(ctx, cfg); err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			if err := rotate(ctx, cfg); err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			return ctx.Next()
		}
	}
}

// validate runs the double-submit check. The header and cookie values
// must be equal before any HMAC work happens: a forged header alone
// never reaches the codec.
func validate(ctx router.Context, cfg Config) error {
	headerToken := ctx.Header(cfg.HeaderName)
	cookieToken := ctx.Cookies(cfg.CookieName)

	if headerToken == "" || cookieToken == "" {
		return ErrTokenMissing
	}

	if subtle.ConstantTimeCompare([]byte(headerToken), []byte(cookieToken)) != 1 {
		return ErrTokenMismatch
	}

	if _, ok := cfg.Codec.Verify(cookieToken, cfg.SubjectResolver(ctx)); !ok {
		return ErrTokenMismatch
	}

	return nil
}

// rotate replaces the cookie and header pair with a freshly issued
// token so each validated token is good for one request only.
func rotate(ctx router.Context, cfg Config) error {
	token, err := cfg.Codec.Issue(cfg.SubjectResolver(ctx))
	if err != nil {
		return err
	}

	ctx.Cookie(&router.Cookie{
		Name:     cfg.CookieName,
		Value:    token,
		Expires:  time.Now().Add(cfg.TokenTTL),
		HTTPOnly: true,
		Secure:   cfg.SecureCookies,
		SameSite: "Strict",
	})
	ctx.SetHeader(cfg.HeaderName, token)
	ctx.Locals(cfg.ContextKey, token)

	return nil
}

func defaultSubjectResolver(ctx router.Context) string {
	if userID := ctx.Locals("user_id"); userID != nil {
		if id, ok := userID.(string); ok {
			return id
		}
	}
	return ""
}

func defaultErrorHandler(ctx router.Context, err error) error {
	return ctx.Status(http.StatusForbidden).SendString("Forbidden")
}
