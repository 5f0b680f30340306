package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAuthService_RoundTrip(t *testing.T) {
	s := NewAuthService("secret", time.Minute)
	token, err := s.GenerateToken("42")
	require.NoError(t, err)

	userID, err := s.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "42", userID)
}

func TestAuthService_RejectsBadTokens(t *testing.T) {
	s := NewAuthService("secret", time.Minute)
	token, err := s.GenerateToken("42")
	require.NoError(t, err)

	other := NewAuthService("other-secret", time.Minute)
	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.ValidateToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)

	s.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = s.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "expired")
}

func TestAuthService_HashPassword(t *testing.T) {
	s := NewAuthService("secret", 0)
	assert.Equal(t, time.Hour, s.ExpiresIn())

	hash, err := s.HashPassword("correct horse")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("correct horse")))
}
