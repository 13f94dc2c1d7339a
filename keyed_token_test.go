package auth_test

import (
	"strings"
	"testing"
	"time"

	auth "github.com/parleychat/go-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKeyedCodec(t *testing.T, embedSubject bool, now func() time.Time) *auth.KeyedToken {
	t.Helper()

	codec, err := auth.NewKeyedToken([]byte("keyed-secret-0123456789abcdef012"), time.Hour, embedSubject)
	require.NoError(t, err)
	if now != nil {
		codec.WithClock(now)
	}
	return codec
}

func TestNewKeyedTokenRequiresSecret(t *testing.T) {
	_, err := auth.NewKeyedToken(nil, time.Hour, false)
	assert.Error(t, err)
}

func TestKeyedTokenImplicitSubject(t *testing.T) {
	codec := newKeyedCodec(t, false, nil)

	token, err := codec.Issue("user-1")
	require.NoError(t, err)

	// nonce.issuedAtMs.hmac
	assert.Len(t, strings.Split(token, "."), 3)

	subject, ok := codec.Verify(token, "user-1")
	require.True(t, ok)
	assert.Equal(t, "user-1", subject)
}

func TestKeyedTokenEmbeddedSubject(t *testing.T) {
	codec := newKeyedCodec(t, true, nil)

	token, err := codec.Issue("user-1")
	require.NoError(t, err)

	// nonce.subject.issuedAtMs.hmac
	assert.Len(t, strings.Split(token, "."), 4)

	// The token identifies its own subject; the supplied one is ignored.
	subject, ok := codec.Verify(token, "")
	require.True(t, ok)
	assert.Equal(t, "user-1", subject)
}

func TestKeyedTokenCrossSubjectFails(t *testing.T) {
	codec := newKeyedCodec(t, false, nil)

	token, err := codec.Issue("u1")
	require.NoError(t, err)

	_, ok := codec.Verify(token, "u2")
	assert.False(t, ok)
}

func TestKeyedTokenExpiryBoundary(t *testing.T) {
	issued := time.Now()
	current := issued
	codec := newKeyedCodec(t, false, func() time.Time { return current })

	token, err := codec.Issue("user-1")
	require.NoError(t, err)

	tests := []struct {
		name  string
		at    time.Time
		valid bool
	}{
		{name: "just before ttl", at: issued.Add(time.Hour - time.Millisecond), valid: true},
		{name: "exactly ttl", at: issued.Add(time.Hour), valid: true},
		{name: "just after ttl", at: issued.Add(time.Hour + time.Millisecond), valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current = tt.at
			_, ok := codec.Verify(token, "user-1")
			assert.Equal(t, tt.valid, ok)
		})
	}
}

func TestKeyedTokenTamperFails(t *testing.T) {
	codec := newKeyedCodec(t, true, nil)

	token, err := codec.Issue("user-1")
	require.NoError(t, err)

	for offset := 0; offset < len(token); offset += 7 {
		if token[offset] == '.' {
			continue
		}

		tampered := []byte(token)
		if tampered[offset] == '0' {
			tampered[offset] = '1'
		} else {
			tampered[offset] = '0'
		}

		if string(tampered) == token {
			continue
		}

		_, ok := codec.Verify(string(tampered), "")
		assert.False(t, ok, "tamper at offset %d should fail", offset)
	}
}

func TestKeyedTokenStructuralFailures(t *testing.T) {
	codec := newKeyedCodec(t, false, nil)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "wrong arity short", token: "nonce.sig"},
		{name: "wrong arity long", token: "nonce.subject.123.sig"},
		{name: "non numeric timestamp", token: "nonce.notatime.sig"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := codec.Verify(tt.token, "user-1")
			assert.False(t, ok)
		})
	}
}
