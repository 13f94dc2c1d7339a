package auth

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Identity holds the attributes of an authenticated principal
type Identity interface {
	ID() string
	Username() string
	Email() string
	Role() string
}

// TokenBundle carries the three credentials attached to every
// authenticated response.
type TokenBundle struct {
	AccessToken  string
	RefreshToken string
	CSRFToken    string
}

// UserStore is the credential store contract the orchestrator depends on.
// Backends implement it against whatever persistence engine they use.
type UserStore interface {
	Create(ctx context.Context, user *User) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByExternalID(ctx context.Context, provider Provider, externalID string) (*User, error)
	Update(ctx context.Context, user *User) (*User, error)
	Delete(ctx context.Context, id string) error
	FindAllSafe(ctx context.Context) ([]*User, error)
	LinkExternalID(ctx context.Context, id string, provider Provider, externalID string) (*User, error)
	MarkVerified(ctx context.Context, id string) error
	ResetPassword(ctx context.Context, id string, passwordHash string) error
	TrackAttemptedLogin(ctx context.Context, user *User) error
	TrackSuccessfulLogin(ctx context.Context, user *User) error
}

// EmailResult reports the outcome of a delivery attempt.
type EmailResult struct {
	Success   bool
	MessageID string
}

// EmailSender delivers transactional mail. Failures are fatal only when
// sending is the sole purpose of the calling flow.
type EmailSender interface {
	Send(ctx context.Context, to, subject, textBody string, htmlBody ...string) (EmailResult, error)
}

// SignedTokenService mints and validates the JWT access/refresh pair.
type SignedTokenService interface {
	IssueAccessToken(userID, role string, permissions []string) (string, error)
	IssueRefreshToken(userID string) (string, error)
	ValidateAccessToken(raw string) (*AccessClaims, error)
	ValidateRefreshToken(raw string) (*RefreshClaims, error)
}

// KeyedTokenCodec is the single-use-intent token primitive used for email
// verification, password reset, and CSRF tokens.
type KeyedTokenCodec interface {
	Issue(subjectID string) (string, error)
	Verify(token, subjectID string) (string, bool)
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}

// IsWithinThresholdPeriod checks if the given time is within the threshold
func IsWithinThresholdPeriod(t time.Time, pattern string) (bool, error) {
	duration, err := time.ParseDuration(pattern)
	if err != nil {
		return false, err
	}

	threshold := time.Now().Add(-duration)
	if t.After(threshold) {
		return true, nil
	}

	return false, nil
}

// IsOutsideThresholdPeriod is the negation of IsWithinThresholdPeriod
func IsOutsideThresholdPeriod(t time.Time, pattern string) (bool, error) {
	valid, err := IsWithinThresholdPeriod(t, pattern)
	if err != nil {
		return false, err
	}

	return !valid, nil
}
