package auth

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// MinimumAge is the youngest allowed account holder.
const MinimumAge = 13

var usernameCharset = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)

// commonPasswordFragments are rejected as substrings, case-insensitive.
var commonPasswordFragments = []string{
	"password",
	"123456",
	"qwerty",
	"abc123",
	"letmein",
	"welcome",
}

// RegisterInput is the registration payload
type RegisterInput struct {
	Username        string     `json:"username"`
	Email           string     `json:"email"`
	Password        string     `json:"password"`
	ConfirmPassword string     `json:"confirm_password"`
	DisplayName     string     `json:"display_name"`
	DateOfBirth     *time.Time `json:"date_of_birth"`
}

// Validate collects every violation in one pass so the caller can fix
// all of them at once.
func (r RegisterInput) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.By(ValidateUsername)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.By(ValidatePasswordStrength)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password, "must match password")),
		),
		validation.Field(&r.DateOfBirth, validation.Required, validation.By(ValidateMinimumAge)),
	)
	return collectViolations(err)
}

// LoginInput is the login payload. Identifier accepts username or email.
type LoginInput struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

func (r LoginInput) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Identifier, validation.Required, validation.Length(3, 100)),
		validation.Field(&r.Password, validation.Required, validation.Length(1, 100)),
	)
	return collectViolations(err)
}

// ForgotPasswordInput carries the address requesting a reset.
type ForgotPasswordInput struct {
	Email string `json:"email"`
}

func (r ForgotPasswordInput) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
	return collectViolations(err)
}

// ResetPasswordInput carries the new password for a reset flow.
type ResetPasswordInput struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (r ResetPasswordInput) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Password, validation.Required, validation.By(ValidatePasswordStrength)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password, "must match password")),
		),
	)
	return collectViolations(err)
}

// ValidateUsername enforces charset, length, and underscore placement.
func ValidateUsername(value any) error {
	username, _ := value.(string)

	if !usernameCharset.MatchString(username) {
		return fmt.Errorf("must be 3 to 20 characters of letters, digits, or underscore")
	}

	if strings.HasPrefix(username, "_") || strings.HasSuffix(username, "_") {
		return fmt.Errorf("must not start or end with underscore")
	}

	if strings.Contains(username, "__") {
		return fmt.Errorf("must not contain consecutive underscores")
	}

	return nil
}

// ValidatePasswordStrength enforces length, character classes, common
// fragments, and repeated runs.
func ValidatePasswordStrength(value any) error {
	password, _ := value.(string)

	if len(password) < 8 {
		return fmt.Errorf("must be at least 8 characters")
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return fmt.Errorf("must contain an uppercase letter, a lowercase letter, and a digit")
	}

	lowered := strings.ToLower(password)
	for _, fragment := range commonPasswordFragments {
		if strings.Contains(lowered, fragment) {
			return fmt.Errorf("must not contain the common sequence %q", fragment)
		}
	}

	runLength := 1
	for i := 1; i < len(password); i++ {
		if password[i] == password[i-1] {
			runLength++
			if runLength >= 3 {
				return fmt.Errorf("must not repeat the same character 3 or more times in a row")
			}
		} else {
			runLength = 1
		}
	}

	return nil
}

// ValidateStringEquals builds a rule asserting equality with another field.
func ValidateStringEquals(expected, message string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != expected {
			return fmt.Errorf("%s", message)
		}
		return nil
	}
}

// ValidateMinimumAge checks the account holder is old enough as of today.
func ValidateMinimumAge(value any) error {
	dob, ok := value.(*time.Time)
	if !ok || dob == nil {
		return fmt.Errorf("must be a valid date")
	}

	if dob.After(time.Now().AddDate(-MinimumAge, 0, 0)) {
		return fmt.Errorf("must be at least %d years old", MinimumAge)
	}

	return nil
}

// collectViolations flattens ozzo's per-field error map into a single
// ValidationError enumerating every violation found.
func collectViolations(err error) error {
	if err == nil {
		return nil
	}

	fieldErrors, ok := err.(validation.Errors)
	if !ok {
		return NewValidationError([]string{err.Error()})
	}

	violations := make([]string, 0, len(fieldErrors))
	for _, field := range sortedKeys(fieldErrors) {
		violations = append(violations, fmt.Sprintf("%s: %s", field, fieldErrors[field].Error()))
	}

	return NewValidationError(violations)
}

func sortedKeys(m validation.Errors) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
