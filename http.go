package auth

import (
	"net/http"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// Cookie names of the token bundle. Interop-sensitive, clients and the
// CSRF middleware match on these exact names.
const (
	CookieAccessToken  = "access-token"
	CookieRefreshToken = "refresh-token"
	CookieCSRFToken    = "x-csrf-token"
)

// HeaderCSRFToken echoes the CSRF cookie value so browser clients can
// read it and send it back as the double-submit header.
const HeaderCSRFToken = "x-csrf-token"

// RouteAuthenticator adapts the orchestrator to the HTTP surface: it
// binds payloads, applies the cookie contract, and translates rich
// errors into responses that leak nothing useful to an attacker.
type RouteAuthenticator struct {
	auth         *Authenticator
	cfg          Config
	Logger       Logger
	ErrorHandler func(c router.Context, err error) error
}

// NewHTTPAuthenticator builds the HTTP glue over an orchestrator.
func NewHTTPAuthenticator(auther *Authenticator, cfg Config) (*RouteAuthenticator, error) {
	a := &RouteAuthenticator{
		auth:   auther,
		cfg:    cfg,
		Logger: defLogger{},
	}

	a.ErrorHandler = a.defaultErrHandler

	return a, nil
}

func (a *RouteAuthenticator) Register(ctx router.Context) error {
	payload := new(RegisterInput)
	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse payload"))
	}

	bundle, user, err := a.auth.Register(ctx.Context(), *payload)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	a.SetTokenCookies(ctx, bundle)
	return ctx.JSON(http.StatusCreated, map[string]any{
		"id":       user.ID,
		"username": user.Username,
	})
}

func (a *RouteAuthenticator) Login(ctx router.Context) error {
	payload := new(LoginInput)
	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse payload"))
	}

	bundle, user, err := a.auth.Login(ctx.Context(), *payload)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	a.SetTokenCookies(ctx, bundle)
	return ctx.JSON(http.StatusOK, map[string]any{
		"id":       user.ID,
		"username": user.Username,
	})
}

func (a *RouteAuthenticator) Refresh(ctx router.Context) error {
	refreshToken := ctx.Cookies(CookieRefreshToken)
	if refreshToken == "" {
		return a.ErrorHandler(ctx, ErrUnauthorized)
	}

	accessToken, err := a.auth.Refresh(ctx.Context(), refreshToken)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	a.setCookie(ctx, CookieAccessToken, accessToken, a.cfg.GetAccessTokenTTL())
	return ctx.Status(http.StatusNoContent).SendString("")
}

func (a *RouteAuthenticator) Logout(ctx router.Context) error {
	if err := a.auth.Logout(ctx.Context(), ctx.Cookies(CookieRefreshToken)); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	a.ClearTokenCookies(ctx)
	return ctx.Status(http.StatusNoContent).SendString("")
}

// ForgotPassword always answers with the same accepted response so the
// endpoint cannot be used to probe which addresses have accounts.
func (a *RouteAuthenticator) ForgotPassword(ctx router.Context) error {
	payload := new(ForgotPasswordInput)
	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse payload"))
	}

	if err := a.auth.ForgotPassword(ctx.Context(), payload.Email); err != nil {
		if goerrors.IsNotFound(err) {
			a.Logger.Info("forgot-password for unknown address")
		} else if IsValidationError(err) {
			return a.ErrorHandler(ctx, err)
		} else {
			a.Logger.Error("forgot-password failed: %v", err)
		}
	}

	return ctx.JSON(http.StatusAccepted, map[string]any{
		"message": "If the address has an account, a reset email is on its way",
	})
}

func (a *RouteAuthenticator) ResetPassword(ctx router.Context) error {
	payload := new(ResetPasswordInput)
	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse payload"))
	}

	token := ctx.Param("token")
	if err := a.auth.ResetPassword(ctx.Context(), token, *payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.Status(http.StatusNoContent).SendString("")
}

// SetTokenCookies applies the full bundle contract and echoes the CSRF
// value in the response header.
func (a *RouteAuthenticator) SetTokenCookies(ctx router.Context, bundle *TokenBundle) {
	a.setCookie(ctx, CookieAccessToken, bundle.AccessToken, a.cfg.GetAccessTokenTTL())
	a.setCookie(ctx, CookieRefreshToken, bundle.RefreshToken, a.cfg.GetRefreshTokenTTL())
	a.setCookie(ctx, CookieCSRFToken, bundle.CSRFToken, a.cfg.GetCSRFTokenTTL())
	ctx.SetHeader(HeaderCSRFToken, bundle.CSRFToken)
}

// ClearTokenCookies expires all three cookies.
func (a *RouteAuthenticator) ClearTokenCookies(ctx router.Context) {
	a.cookieDel(ctx, CookieAccessToken)
	a.cookieDel(ctx, CookieRefreshToken)
	a.cookieDel(ctx, CookieCSRFToken)
}

func (a *RouteAuthenticator) setCookie(c router.Context, name, val string, ttl time.Duration) {
	c.Cookie(&router.Cookie{
		Name:     name,
		Value:    val,
		Expires:  time.Now().Add(ttl),
		HTTPOnly: true,
		Secure:   a.cfg.IsProduction(),
		SameSite: "Strict",
	})
}

func (a *RouteAuthenticator) cookieDel(c router.Context, name string) {
	c.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   a.cfg.IsProduction(),
		SameSite: "Strict",
	})
}

// defaultErrHandler maps the error taxonomy to statuses. Login-adjacent
// failures all answer 401 with the same body regardless of which check
// tripped.
func (a *RouteAuthenticator) defaultErrHandler(c router.Context, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred").
			WithCode(goerrors.CodeInternal)
	}

	a.Logger.Info(
		"auth error handler",
		"error", richErr.Message,
		"category", richErr.Category,
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)

	switch richErr.Category {
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return c.JSON(http.StatusBadRequest, map[string]any{
			"error":     richErr.Message,
			"text_code": richErr.TextCode,
		})
	case goerrors.CategoryConflict:
		return c.JSON(http.StatusConflict, map[string]any{
			"error":     richErr.Message,
			"text_code": richErr.TextCode,
		})
	case goerrors.CategoryAuth, goerrors.CategoryAuthz, goerrors.CategoryRateLimit:
		return c.JSON(http.StatusUnauthorized, map[string]any{
			"error":     ErrInvalidCredentials.Message,
			"text_code": TextCodeInvalidCreds,
		})
	case goerrors.CategoryNotFound:
		return c.JSON(http.StatusNotFound, map[string]any{
			"error":     richErr.Message,
			"text_code": richErr.TextCode,
		})
	default:
		return c.JSON(http.StatusInternalServerError, map[string]any{
			"error": "An unexpected server error occurred",
		})
	}
}
