package auth

import (
	"context"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
)

// OAuthProfile is the provider-vouched identity handed to the OAuth
// callback. The transport layer has already verified it with the
// provider; this package only links or provisions the local account.
type OAuthProfile struct {
	ExternalID  string
	Email       string
	Username    string
	DisplayName string
}

// Authenticator composes the stores, the hasher, and the token codecs
// into the register/login/refresh/verification/reset flows. Each flow
// is a short fail-fast pipeline with no internal retries.
type Authenticator struct {
	users             UserStore
	permissions       *PermissionService
	tokens            SignedTokenService
	verificationCodec KeyedTokenCodec
	resetCodec        KeyedTokenCodec
	csrfCodec         KeyedTokenCodec
	mailer            EmailSender
	logger            Logger
	maxLoginAttempts  int
	loginCooldown     string
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(users UserStore, permissions *PermissionService, cfg Config) (*Authenticator, error) {
	tokens, err := NewTokenService(
		[]byte(cfg.GetAccessTokenSecret()),
		[]byte(cfg.GetRefreshTokenSecret()),
		cfg.GetAccessTokenTTL(),
		cfg.GetRefreshTokenTTL(),
	)
	if err != nil {
		return nil, err
	}
	tokens.WithIssuer(cfg.GetIssuer()).WithAudience(cfg.GetAudience()...)

	verificationCodec, err := NewKeyedToken([]byte(cfg.GetVerificationSecret()), cfg.GetKeyedTokenTTL(), false)
	if err != nil {
		return nil, err
	}

	resetCodec, err := NewKeyedToken([]byte(cfg.GetResetSecret()), cfg.GetKeyedTokenTTL(), true)
	if err != nil {
		return nil, err
	}

	csrfCodec, err := NewKeyedToken([]byte(cfg.GetCSRFSecret()), cfg.GetCSRFTokenTTL(), false)
	if err != nil {
		return nil, err
	}

	return &Authenticator{
		users:             users,
		permissions:       permissions,
		tokens:            tokens,
		verificationCodec: verificationCodec,
		resetCodec:        resetCodec,
		csrfCodec:         csrfCodec,
		mailer:            NewLogEmailSender(nil),
		logger:            defLogger{},
		maxLoginAttempts:  cfg.GetMaxLoginAttempts(),
		loginCooldown:     cfg.GetLoginCooldown(),
	}, nil
}

func (s *Authenticator) WithLogger(logger Logger) *Authenticator {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithEmailSender sets the delivery backend for verification and reset
// mail.
func (s *Authenticator) WithEmailSender(mailer EmailSender) *Authenticator {
	if mailer != nil {
		s.mailer = mailer
	}
	return s
}

// WithTokenService overrides the signed token codec, meant for tests.
func (s *Authenticator) WithTokenService(tokens SignedTokenService) *Authenticator {
	if tokens != nil {
		s.tokens = tokens
	}
	return s
}

// WithKeyedCodecs overrides the keyed token codecs, meant for tests.
func (s *Authenticator) WithKeyedCodecs(verification, reset, csrf KeyedTokenCodec) *Authenticator {
	if verification != nil {
		s.verificationCodec = verification
	}
	if reset != nil {
		s.resetCodec = reset
	}
	if csrf != nil {
		s.csrfCodec = csrf
	}
	return s
}

// CSRFCodec exposes the CSRF codec for the double-submit middleware.
func (s *Authenticator) CSRFCodec() KeyedTokenCodec {
	return s.csrfCodec
}

// Register creates an unverified account, assigns the default role,
// sends the verification mail best-effort, and mints the token bundle.
func (s *Authenticator) Register(ctx context.Context, input RegisterInput) (*TokenBundle, *User, error) {
	if err := input.Validate(); err != nil {
		return nil, nil, err
	}

	if _, err := s.users.FindByEmail(ctx, input.Email); err == nil {
		return nil, nil, ErrAccountExists
	} else if !goerrors.IsNotFound(err) {
		return nil, nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email uniqueness")
	}

	if _, err := s.users.FindByUsername(ctx, input.Username); err == nil {
		return nil, nil, ErrAccountExists
	} else if !goerrors.IsNotFound(err) {
		return nil, nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check username uniqueness")
	}

	passwordHash, err := HashPassword(input.Password)
	if err != nil {
		return nil, nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	user := &User{
		Username:     input.Username,
		Email:        strings.ToLower(input.Email),
		DisplayName:  input.DisplayName,
		DateOfBirth:  input.DateOfBirth,
		PasswordHash: passwordHash,
	}

	if id, err := hashid.NewUUID(user.Email); err == nil {
		user.ID = id
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	if err := s.permissions.AssignDefaultRole(ctx, created.ID.String()); err != nil {
		return nil, nil, err
	}

	// Verification mail is best-effort, a delivery failure must not
	// roll back the account.
	if err := s.sendVerificationEmail(ctx, created); err != nil {
		s.logger.Warn("register: verification email failed for %s: %v", created.Email, err)
	}

	bundle, err := s.MintTokenBundle(ctx, created.ID.String())
	if err != nil {
		return nil, nil, err
	}

	return bundle, created, nil
}

// Login verifies credentials and mints the token bundle. Unknown
// identifier, inactive account, and wrong password all collapse to the
// same generic credential error so callers cannot enumerate accounts.
func (s *Authenticator) Login(ctx context.Context, input LoginInput) (*TokenBundle, *User, error) {
	if err := input.Validate(); err != nil {
		return nil, nil, err
	}

	user, err := s.resolveIdentifier(ctx, input.Identifier)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if !user.CanLogin() {
		s.logger.Warn("login blocked for inactive account %s", user.ID)
		return nil, nil, ErrInvalidCredentials
	}

	if err := s.checkLoginCooldown(user); err != nil {
		return nil, nil, err
	}

	if err := ComparePasswordAndHash(input.Password, user.PasswordHash); err != nil {
		if trackErr := s.users.TrackAttemptedLogin(ctx, user); trackErr != nil {
			s.logger.Error("login: failed to track attempt for %s: %v", user.ID, trackErr)
		}
		return nil, nil, ErrInvalidCredentials
	}

	if err := s.users.TrackSuccessfulLogin(ctx, user); err != nil {
		s.logger.Error("login: failed to track success for %s: %v", user.ID, err)
	}

	bundle, err := s.MintTokenBundle(ctx, user.ID.String())
	if err != nil {
		return nil, nil, err
	}

	return bundle, user, nil
}

// Refresh validates the refresh token and mints a fresh access token.
// Role and permissions are re-resolved from the store so revocations
// take effect on the next refresh, not only at natural expiry.
func (s *Authenticator) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", ErrUnauthorized
	}

	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return "", ErrInvalidToken
	}

	role, permissions, err := s.permissions.ResolveAccess(ctx, claims.UserID())
	if err != nil {
		return "", err
	}

	return s.tokens.IssueAccessToken(claims.UserID(), role, permissions)
}

// Logout only asserts the session cookie exists. Tokens are stateless,
// clearing the cookies is the caller's job and an access token minted
// before logout stays verifiable until its own expiry.
func (s *Authenticator) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return ErrUnauthorized
	}
	return nil
}

// RequestEmailVerification issues a fresh verification token and sends
// it. Here delivery is the whole point, so a send failure is fatal.
func (s *Authenticator) RequestEmailVerification(ctx context.Context, userID string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if user.IsVerified {
		return ErrAlreadyVerified
	}

	return s.sendVerificationEmail(ctx, user)
}

// ConfirmEmailVerification checks the token against the caller's own
// id and flips the verified flag.
func (s *Authenticator) ConfirmEmailVerification(ctx context.Context, userID, token string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return ErrInvalidCredentials
		}
		return err
	}

	if user.IsVerified {
		return ErrAlreadyVerified
	}

	if _, ok := s.verificationCodec.Verify(token, userID); !ok {
		return ErrInvalidToken
	}

	return s.users.MarkVerified(ctx, userID)
}

// ForgotPassword issues a reset token with the subject embedded and
// mails it. Callers at the boundary should respond identically whether
// or not the account exists.
func (s *Authenticator) ForgotPassword(ctx context.Context, email string) error {
	input := ForgotPasswordInput{Email: email}
	if err := input.Validate(); err != nil {
		return err
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	token, err := s.resetCodec.Issue(user.ID.String())
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue reset token")
	}

	result, err := s.mailer.Send(ctx, user.Email, passwordResetSubject, passwordResetEmailBody(user.DisplayName, token))
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to send reset email")
	}

	s.logger.Info("password reset email sent to %s message=%s", user.Email, result.MessageID)
	return nil
}

// ResetPassword validates the new password, verifies the embedded
// subject token, and persists the new hash. Reusing the current
// password fails with the generic credential error.
func (s *Authenticator) ResetPassword(ctx context.Context, token string, input ResetPasswordInput) error {
	if err := input.Validate(); err != nil {
		return err
	}

	subject, ok := s.resetCodec.Verify(token, "")
	if !ok {
		return ErrInvalidToken
	}

	user, err := s.users.FindByID(ctx, subject)
	if err != nil {
		return err
	}

	if PasswordMatchesHash(input.Password, user.PasswordHash) {
		return ErrInvalidCredentials
	}

	passwordHash, err := HashPassword(input.Password)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	return s.users.ResetPassword(ctx, user.ID.String(), passwordHash)
}

// OAuthCallback links or provisions an account for a provider-vouched
// profile and mints the token bundle. Lookup order: external id, then
// email link, then a brand-new auto-verified account.
func (s *Authenticator) OAuthCallback(ctx context.Context, provider Provider, profile OAuthProfile) (*TokenBundle, *User, error) {
	user, err := s.users.FindByExternalID(ctx, provider, profile.ExternalID)
	if err == nil {
		return s.finishOAuth(ctx, user)
	}
	if !goerrors.IsNotFound(err) {
		return nil, nil, err
	}

	if profile.Email != "" {
		existing, err := s.users.FindByEmail(ctx, profile.Email)
		if err == nil {
			linked, err := s.users.LinkExternalID(ctx, existing.ID.String(), provider, profile.ExternalID)
			if err != nil {
				return nil, nil, err
			}
			return s.finishOAuth(ctx, linked)
		}
		if !goerrors.IsNotFound(err) {
			return nil, nil, err
		}
	}

	provisioned, err := s.provisionOAuthUser(ctx, provider, profile)
	if err != nil {
		return nil, nil, err
	}

	return s.finishOAuth(ctx, provisioned)
}

func (s *Authenticator) provisionOAuthUser(ctx context.Context, provider Provider, profile OAuthProfile) (*User, error) {
	username := profile.Username
	if username == "" {
		username = fmt.Sprintf("%s_%s", provider, profile.ExternalID)
	}

	user := &User{
		Username:     username,
		Email:        strings.ToLower(profile.Email),
		DisplayName:  profile.DisplayName,
		PasswordHash: RandomPasswordHash(),
		IsVerified:   true,
	}
	user.SetExternalID(provider, profile.ExternalID)

	created, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	// Provisioning still succeeds when the role edge fails; the user
	// can log in and an operator can repair the assignment.
	if err := s.permissions.AssignDefaultRole(ctx, created.ID.String()); err != nil {
		s.logger.Error("oauth: default role assignment failed for %s: %v", created.ID, err)
	}

	return created, nil
}

func (s *Authenticator) finishOAuth(ctx context.Context, user *User) (*TokenBundle, *User, error) {
	if !user.CanLogin() {
		return nil, nil, ErrInvalidCredentials
	}

	if err := s.users.TrackSuccessfulLogin(ctx, user); err != nil {
		s.logger.Error("oauth: failed to track login for %s: %v", user.ID, err)
	}

	bundle, err := s.MintTokenBundle(ctx, user.ID.String())
	if err != nil {
		return nil, nil, err
	}

	return bundle, user, nil
}

// MintTokenBundle resolves role and permissions and issues the access,
// refresh, and CSRF tokens for one authenticated response.
func (s *Authenticator) MintTokenBundle(ctx context.Context, userID string) (*TokenBundle, error) {
	role, permissions, err := s.permissions.ResolveAccess(ctx, userID)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.tokens.IssueAccessToken(userID, role, permissions)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.tokens.IssueRefreshToken(userID)
	if err != nil {
		return nil, err
	}

	csrfToken, err := s.csrfCodec.Issue(userID)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue csrf token")
	}

	return &TokenBundle{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		CSRFToken:    csrfToken,
	}, nil
}

func (s *Authenticator) resolveIdentifier(ctx context.Context, identifier string) (*User, error) {
	if strings.Contains(identifier, "@") {
		return s.users.FindByEmail(ctx, identifier)
	}
	return s.users.FindByUsername(ctx, identifier)
}

// checkLoginCooldown blocks verification once the account has burned
// through its attempts inside the cooldown window. Attempts reset on
// the first try outside the window.
func (s *Authenticator) checkLoginCooldown(user *User) error {
	if user.LoginAttempts < s.maxLoginAttempts || user.LoginAttemptAt == nil {
		return nil
	}

	outside, err := IsOutsideThresholdPeriod(*user.LoginAttemptAt, s.loginCooldown)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "invalid login cooldown")
	}

	if outside {
		user.LoginAttempts = 0
		return nil
	}

	s.logger.Warn("login blocked for %s: %d attempts within %s", user.ID, user.LoginAttempts, s.loginCooldown)
	return ErrTooManyLoginAttempts
}

func (s *Authenticator) sendVerificationEmail(ctx context.Context, user *User) error {
	token, err := s.verificationCodec.Issue(user.ID.String())
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue verification token")
	}

	result, err := s.mailer.Send(ctx, user.Email, verificationSubject, verificationEmailBody(user.DisplayName, token))
	if err != nil {
		return err
	}

	s.logger.Info("verification email sent to %s message=%s", user.Email, result.MessageID)
	return nil
}
