package auth

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes let boundary layers map errors to API responses without
// string matching on messages.
const (
	TextCodeInvalidCreds     = "INVALID_CREDENTIALS"
	TextCodeAccountExists    = "ACCOUNT_EXISTS"
	TextCodeUnauthorized     = "UNAUTHORIZED"
	TextCodeInvalidToken     = "INVALID_TOKEN"
	TextCodeAlreadyVerified  = "ALREADY_VERIFIED"
	TextCodeUserNotFound     = "USER_NOT_FOUND"
	TextCodePermissionLookup = "PERMISSION_NOT_FOUND"
	TextCodeTooManyAttempts  = "TOO_MANY_LOGIN_ATTEMPTS"
	TextCodeEmptyPassword    = "EMPTY_PASSWORD"
	TextCodeValidationFailed = "VALIDATION_FAILED"
)

// ErrMismatchedHashAndPassword is returned whenever credential
// verification fails. The message is deliberately generic so callers
// cannot tell a wrong password from a missing or inactive account.
var ErrMismatchedHashAndPassword = goerrors.New(
	"the credentials provided are invalid",
	goerrors.CategoryAuth,
).WithTextCode(TextCodeInvalidCreds)

// ErrInvalidCredentials aliases the generic credential failure for flows
// that never touched the hasher, e.g. unknown username or locked account.
var ErrInvalidCredentials = ErrMismatchedHashAndPassword

// ErrAccountExists signals a duplicate email or username at registration.
var ErrAccountExists = goerrors.New(
	"an account with the given email or username already exists",
	goerrors.CategoryConflict,
).WithTextCode(TextCodeAccountExists)

// ErrUnauthorized signals a missing required credential, e.g. no refresh
// token cookie on refresh or logout.
var ErrUnauthorized = goerrors.New(
	"authorization required",
	goerrors.CategoryAuth,
).WithTextCode(TextCodeUnauthorized).WithCode(goerrors.CodeUnauthorized)

// ErrInvalidToken collapses every signed or keyed token failure, bad
// signature, malformed payload, or expiry, into one indistinguishable
// outcome.
var ErrInvalidToken = goerrors.New(
	"invalid or expired token",
	goerrors.CategoryAuth,
).WithTextCode(TextCodeInvalidToken)

// ErrAlreadyVerified signals a verification request for an account whose
// email is already confirmed.
var ErrAlreadyVerified = goerrors.New(
	"account is already verified",
	goerrors.CategoryConflict,
).WithTextCode(TextCodeAlreadyVerified)

// ErrUserNotFound is the structured not-found error for user lookups.
var ErrUserNotFound = goerrors.New(
	"user not found",
	goerrors.CategoryNotFound,
).WithTextCode(TextCodeUserNotFound)

// ErrPermissionNotFound is returned when a grant or revoke names a
// permission that was never seeded.
var ErrPermissionNotFound = goerrors.New(
	"permission not found",
	goerrors.CategoryNotFound,
).WithTextCode(TextCodePermissionLookup)

// ErrTooManyLoginAttempts is raised internally when an account exceeds
// the failed-attempt threshold inside the cooldown window. Boundary
// layers surface it as the generic credential failure.
var ErrTooManyLoginAttempts = goerrors.New(
	"too many login attempts",
	goerrors.CategoryRateLimit,
).WithTextCode(TextCodeTooManyAttempts)

// ErrNoEmptyString rejects empty passwords before they reach bcrypt.
var ErrNoEmptyString = goerrors.New(
	"password cannot be empty",
	goerrors.CategoryValidation,
).WithTextCode(TextCodeEmptyPassword)

// NewValidationError wraps the full set of violations found in one
// validation pass. The messages are joined so the caller sees every
// problem at once instead of fixing them one request at a time.
func NewValidationError(violations []string) *goerrors.Error {
	return goerrors.New(
		strings.Join(violations, "; "),
		goerrors.CategoryValidation,
	).WithTextCode(TextCodeValidationFailed).WithMetadata(map[string]any{
		"violations": violations,
	})
}

// IsValidationError reports whether err carries the validation category.
func IsValidationError(err error) bool {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.Category == goerrors.CategoryValidation
	}
	return false
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if goerrors.Is(err, ErrInvalidToken) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
