package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// TokenService mints and validates the access/refresh token pair. Each
// token class is signed with its own secret so compromise of one secret
// cannot cross-validate the other class.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
	audience      jwt.ClaimStrings
	logger        Logger
	now           func() time.Time
}

var _ SignedTokenService = (*TokenService)(nil)

// NewTokenService creates a new TokenService instance
func NewTokenService(accessSecret, refreshSecret []byte, accessTTL, refreshTTL time.Duration) (*TokenService, error) {
	if len(accessSecret) == 0 || len(refreshSecret) == 0 {
		return nil, goerrors.New("token secrets must not be empty", goerrors.CategoryInternal)
	}

	return &TokenService{
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		logger:        defLogger{},
		now:           time.Now,
	}, nil
}

// WithLogger sets the service logger
func (ts *TokenService) WithLogger(logger Logger) *TokenService {
	if logger != nil {
		ts.logger = logger
	}
	return ts
}

// WithIssuer sets the iss claim stamped on every minted token
func (ts *TokenService) WithIssuer(issuer string) *TokenService {
	ts.issuer = issuer
	return ts
}

// WithAudience sets the aud claim stamped on every minted token
func (ts *TokenService) WithAudience(audience ...string) *TokenService {
	ts.audience = audience
	return ts
}

// WithClock overrides the time source, meant for tests
func (ts *TokenService) WithClock(now func() time.Time) *TokenService {
	if now != nil {
		ts.now = now
	}
	return ts
}

// IssueAccessToken mints a short-lived token carrying the role and the
// effective permission set resolved at mint time.
func (ts *TokenService) IssueAccessToken(userID, role string, permissions []string) (string, error) {
	now := ts.now()
	claims := &AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   userID,
			Audience:  ts.audience,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.accessTTL)),
		},
		UID:         userID,
		UserRole:    role,
		Permissions: permissions,
	}

	return ts.signClaims(claims, ts.accessSecret)
}

// IssueRefreshToken mints a long-lived token carrying only the subject.
func (ts *TokenService) IssueRefreshToken(userID string) (string, error) {
	now := ts.now()
	claims := &RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   userID,
			Audience:  ts.audience,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.refreshTTL)),
		},
		UID: userID,
	}

	return ts.signClaims(claims, ts.refreshSecret)
}

func (ts *TokenService) signClaims(claims jwt.Claims, secret []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(secret)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

// ValidateAccessToken verifies signature and expiry against the access
// secret. Every failure mode collapses to the same invalid-token error
// so callers cannot distinguish expired from forged.
func (ts *TokenService) ValidateAccessToken(raw string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := ts.parseInto(raw, claims, ts.accessSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

// ValidateRefreshToken verifies signature and expiry against the
// refresh secret.
func (ts *TokenService) ValidateRefreshToken(raw string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := ts.parseInto(raw, claims, ts.refreshSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

func (ts *TokenService) parseInto(raw string, claims jwt.Claims, secret []byte) error {
	parserOptions := []jwt.ParserOption{
		jwt.WithTimeFunc(ts.now),
	}
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}

	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService validate encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	}, parserOptions...)

	if err != nil {
		ts.logger.Debug("TokenService validate failed: %v", err)
		return ErrInvalidToken
	}

	if !token.Valid {
		return ErrInvalidToken
	}

	return nil
}
