package auth_test

import (
	"testing"

	goerrors "github.com/goliatone/go-errors"
	auth "github.com/parleychat/go-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := auth.HashPassword("Passw0rd!")
	require.NoError(t, err)

	assert.NotEmpty(t, hash)
	assert.NotEqual(t, "Passw0rd!", hash)

	// Same input hashes to a different value every time, bcrypt salts.
	other, err := auth.HashPassword("Passw0rd!")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other)
}

func TestHashPasswordEmpty(t *testing.T) {
	_, err := auth.HashPassword("")
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, goerrors.CategoryValidation, richErr.Category)
	assert.Equal(t, auth.TextCodeEmptyPassword, richErr.TextCode)
}

func TestComparePasswordAndHash(t *testing.T) {
	hash, err := auth.HashPassword("Passw0rd!")
	require.NoError(t, err)

	t.Run("matching password", func(t *testing.T) {
		assert.NoError(t, auth.ComparePasswordAndHash("Passw0rd!", hash))
	})

	t.Run("wrong password", func(t *testing.T) {
		err := auth.ComparePasswordAndHash("wrong-password", hash)
		require.Error(t, err)

		var richErr *goerrors.Error
		require.True(t, goerrors.As(err, &richErr))
		assert.Equal(t, goerrors.CategoryAuth, richErr.Category)
		assert.Equal(t, auth.TextCodeInvalidCreds, richErr.TextCode)
		assert.Equal(t, "the credentials provided are invalid", richErr.Message)
	})
}

func TestPasswordMatchesHashFailsClosed(t *testing.T) {
	tests := []struct {
		name     string
		password string
		hash     string
		expected bool
	}{
		{
			name:     "malformed hash",
			password: "Passw0rd!",
			hash:     "not-a-bcrypt-hash",
			expected: false,
		},
		{
			name:     "empty hash",
			password: "Passw0rd!",
			hash:     "",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, auth.PasswordMatchesHash(tt.password, tt.hash))
		})
	}
}

func TestRandomPasswordHash(t *testing.T) {
	hash := auth.RandomPasswordHash()
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, hash, auth.RandomPasswordHash())
}
