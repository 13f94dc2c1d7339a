package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessClaims is the payload carried by short-lived access tokens.
type AccessClaims struct {
	jwt.RegisteredClaims
	UID         string   `json:"uid,omitempty"`
	UserRole    string   `json:"role,omitempty"`
	Permissions []string `json:"perms,omitempty"`
}

// UserID returns the user ID
func (c *AccessClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.RegisteredClaims.Subject
}

// Role returns the effective role encoded at mint time
func (c *AccessClaims) Role() string {
	return c.UserRole
}

// HasPermission checks the minted permission set. The set reflects the
// store at mint time; revocations apply on the next refresh.
func (c *AccessClaims) HasPermission(name string) bool {
	for _, p := range c.Permissions {
		if p == name {
			return true
		}
	}
	return false
}

// HasRole checks if the user has a specific role
func (c *AccessClaims) HasRole(role string) bool {
	return c.UserRole == role
}

// Expires returns the expiration time
func (c *AccessClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *AccessClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// RefreshClaims is the payload carried by refresh tokens. Only the
// subject id is encoded so a leaked refresh token reveals nothing about
// roles or permissions.
type RefreshClaims struct {
	jwt.RegisteredClaims
	UID string `json:"uid,omitempty"`
}

// UserID returns the user ID
func (c *RefreshClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.RegisteredClaims.Subject
}
