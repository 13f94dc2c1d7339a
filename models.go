package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Provider identifies an external identity provider
type Provider = string

const (
	// ProviderGoogle is the Google OAuth provider
	ProviderGoogle Provider = "google"
	// ProviderFacebook is the Facebook OAuth provider
	ProviderFacebook Provider = "facebook"
)

// Role names for the seeded role set
const (
	// RoleUser is the default role assigned at account creation
	RoleUser = "USER"
	// RoleModerator can moderate rooms and messages
	RoleModerator = "MODERATOR"
	// RoleAdmin holds every permission
	RoleAdmin = "ADMIN"
)

// User is the user model
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID      `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Username       string         `bun:"username,notnull,unique" json:"username,omitempty"`
	Email          string         `bun:"email,notnull,unique" json:"email,omitempty"`
	DisplayName    string         `bun:"display_name" json:"display_name,omitempty"`
	DateOfBirth    *time.Time     `bun:"date_of_birth,nullzero" json:"date_of_birth,omitempty"`
	PasswordHash   string         `bun:"password_hash" json:"-"`
	IsVerified     bool           `bun:"is_verified" json:"is_verified,omitempty"`
	IsActive       bool           `bun:"is_active" json:"is_active,omitempty"`
	IsLocked       bool           `bun:"is_locked" json:"is_locked,omitempty"`
	IsSuspended    bool           `bun:"is_suspended" json:"is_suspended,omitempty"`
	GoogleID       string         `bun:"google_id,nullzero" json:"google_id,omitempty"`
	FacebookID     string         `bun:"facebook_id,nullzero" json:"facebook_id,omitempty"`
	LoginAttempts  int            `bun:"login_attempts" json:"login_attempts,omitempty"`
	LoginAttemptAt *time.Time     `bun:"login_attempt_at" json:"login_attempt_at,omitempty"`
	LoggedInAt     *time.Time     `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	Metadata       map[string]any `bun:"metadata" json:"metadata,omitempty"`
	CreatedAt      *time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time     `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time     `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// CanLogin reports whether the account is in a state that allows
// credential verification to proceed.
func (u *User) CanLogin() bool {
	if u == nil {
		return false
	}
	return u.IsActive && !u.IsLocked && !u.IsSuspended
}

// ExternalID returns the linked id for the given provider, if any.
func (u *User) ExternalID(provider Provider) string {
	switch provider {
	case ProviderGoogle:
		return u.GoogleID
	case ProviderFacebook:
		return u.FacebookID
	}
	return ""
}

// SetExternalID records the provider link on the model.
func (u *User) SetExternalID(provider Provider, externalID string) *User {
	switch provider {
	case ProviderGoogle:
		u.GoogleID = externalID
	case ProviderFacebook:
		u.FacebookID = externalID
	}
	return u
}

// AddMetadata will append information to a metadata attribute
func (u *User) AddMetadata(key string, val any) *User {
	if u.Metadata == nil {
		u.Metadata = make(map[string]any)
	}
	u.Metadata[key] = val
	return u
}

// Role is a named privilege tier. Higher level means more privileged.
type Role struct {
	bun.BaseModel `bun:"table:roles,alias:rol"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull,unique" json:"name,omitempty"`
	Description   string     `bun:"description" json:"description,omitempty"`
	Level         int        `bun:"level,notnull" json:"level,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Permission is a stable string capability, e.g. "room:create".
// Permissions are seeded once and never renamed.
type Permission struct {
	bun.BaseModel `bun:"table:permissions,alias:perm"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull,unique" json:"name,omitempty"`
	Category      string     `bun:"category,notnull" json:"category,omitempty"`
	Description   string     `bun:"description" json:"description,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// UserRole is a many-to-many User to Role edge. The pair is unique so
// repeated default-role assignment stays idempotent.
type UserRole struct {
	bun.BaseModel `bun:"table:user_roles,alias:usrol"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,unique:user_role_edge,type:uuid" json:"user_id,omitempty"`
	RoleID        uuid.UUID  `bun:"role_id,notnull,unique:user_role_edge,type:uuid" json:"role_id,omitempty"`
	Role          *Role      `bun:"rel:belongs-to,join:role_id=id" json:"role,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// UserPermission is a per-user override of a named permission. Granted
// true adds the permission regardless of role baseline; granted false
// removes it even when a role grants it.
type UserPermission struct {
	bun.BaseModel `bun:"table:user_permissions,alias:usperm"`
	ID            uuid.UUID   `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID   `bun:"user_id,notnull,unique:user_permission_edge,type:uuid" json:"user_id,omitempty"`
	PermissionID  uuid.UUID   `bun:"permission_id,notnull,unique:user_permission_edge,type:uuid" json:"permission_id,omitempty"`
	Permission    *Permission `bun:"rel:belongs-to,join:permission_id=id" json:"permission,omitempty"`
	Granted       bool        `bun:"granted,notnull" json:"granted"`
	GrantedBy     string      `bun:"granted_by" json:"granted_by,omitempty"`
	CreatedAt     *time.Time  `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time  `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// RolePermission is a many-to-many Role to Permission edge defining the
// role's baseline permission set.
type RolePermission struct {
	bun.BaseModel `bun:"table:role_permissions,alias:rolperm"`
	ID            uuid.UUID   `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	RoleID        uuid.UUID   `bun:"role_id,notnull,unique:role_permission_edge,type:uuid" json:"role_id,omitempty"`
	PermissionID  uuid.UUID   `bun:"permission_id,notnull,unique:role_permission_edge,type:uuid" json:"permission_id,omitempty"`
	Permission    *Permission `bun:"rel:belongs-to,join:permission_id=id" json:"permission,omitempty"`
	CreatedAt     *time.Time  `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}
