package auth

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	issuer, err := NewIssuer("secret", 30*time.Minute)
	require.NoError(t, err)

	token, err := issuer.Issue("ada@example.com")
	require.NoError(t, err)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", claims.Subject)
	assert.Equal(t, 30*time.Minute, claims.ExpiresAt.Sub(claims.IssuedAt))
}

func TestParseSubjectWithSeparator(t *testing.T) {
	issuer, err := NewIssuer("secret", time.Minute)
	require.NoError(t, err)

	token, err := issuer.Issue("odd|user@example.com")
	require.NoError(t, err)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "odd|user@example.com", claims.Subject)
}

func TestParseRejects(t *testing.T) {
	issuer, err := NewIssuer("secret", time.Minute)
	require.NoError(t, err)
	other, err := NewIssuer("other-secret", time.Minute)
	require.NoError(t, err)

	valid, err := issuer.Issue("ada@example.com")
	require.NoError(t, err)
	foreign, err := other.Issue("ada@example.com")
	require.NoError(t, err)

	payload, sig, _ := strings.Cut(valid, ".")
	forgedPayload := base64.RawURLEncoding.EncodeToString([]byte("eve@example.com|9999999999|0"))

	expiring, err := NewIssuer("secret", time.Minute)
	require.NoError(t, err)
	expiring.now = func() time.Time { return time.Now().Add(-2 * time.Minute) }
	expired, err := expiring.Issue("ada@example.com")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"no separator", payload},
		{"wrong secret", foreign},
		{"forged payload", forgedPayload + "." + sig},
		{"bad encoding", "!!!." + sig},
		{"expired", expired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := issuer.Parse(tt.token)
			if !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestNewIssuerValidation(t *testing.T) {
	_, err := NewIssuer("", time.Minute)
	assert.Error(t, err)
	_, err = NewIssuer("secret", 0)
	assert.Error(t, err)
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)

	assert.NoError(t, CheckPassword(hash, "hunter22"))
	assert.ErrorIs(t, CheckPassword(hash, "wrong"), ErrInvalidCredentials)
}
