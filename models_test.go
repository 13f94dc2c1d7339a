package auth_test

import (
	"testing"

	auth "github.com/parleychat/go-auth"
	"github.com/stretchr/testify/assert"
)

func TestUserCanLogin(t *testing.T) {
	tests := []struct {
		name     string
		user     *auth.User
		expected bool
	}{
		{
			name:     "active account",
			user:     &auth.User{IsActive: true},
			expected: true,
		},
		{
			name:     "inactive account",
			user:     &auth.User{IsActive: false},
			expected: false,
		},
		{
			name:     "locked account",
			user:     &auth.User{IsActive: true, IsLocked: true},
			expected: false,
		},
		{
			name:     "suspended account",
			user:     &auth.User{IsActive: true, IsSuspended: true},
			expected: false,
		},
		{
			name:     "nil user",
			user:     nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.user.CanLogin())
		})
	}
}

func TestUserExternalIDs(t *testing.T) {
	user := &auth.User{}

	assert.Empty(t, user.ExternalID(auth.ProviderGoogle))

	user.SetExternalID(auth.ProviderGoogle, "g-123")
	user.SetExternalID(auth.ProviderFacebook, "f-456")

	assert.Equal(t, "g-123", user.ExternalID(auth.ProviderGoogle))
	assert.Equal(t, "f-456", user.ExternalID(auth.ProviderFacebook))
	assert.Empty(t, user.ExternalID("unknown-provider"))
}

func TestUserAddMetadata(t *testing.T) {
	user := &auth.User{}

	user.AddMetadata("signup_source", "mobile").AddMetadata("referrer", "invite")

	assert.Equal(t, "mobile", user.Metadata["signup_source"])
	assert.Equal(t, "invite", user.Metadata["referrer"])
}
