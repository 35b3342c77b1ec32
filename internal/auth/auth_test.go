package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		issuer, err := NewTokenIssuer("test-secret", time.Hour)
		require.NoError(t, err)

		userID := uuid.New()
		token, err := issuer.Issue(userID)
		require.NoError(t, err)

		claims, err := issuer.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, userID, claims.UserID)
	})

	t.Run("WrongSecretRejected", func(t *testing.T) {
		issuer, err := NewTokenIssuer("test-secret", time.Hour)
		require.NoError(t, err)
		other, err := NewTokenIssuer("other-secret", time.Hour)
		require.NoError(t, err)

		token, err := issuer.Issue(uuid.New())
		require.NoError(t, err)

		_, err = other.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("ExpiredTokenRejected", func(t *testing.T) {
		issuer, err := NewTokenIssuer("test-secret", -time.Hour)
		require.NoError(t, err)

		token, err := issuer.Issue(uuid.New())
		require.NoError(t, err)

		_, err = issuer.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("GarbageRejected", func(t *testing.T) {
		issuer, err := NewTokenIssuer("test-secret", time.Hour)
		require.NoError(t, err)

		_, err = issuer.Verify("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("EmptySecretRejected", func(t *testing.T) {
		_, err := NewTokenIssuer("", time.Hour)
		assert.Error(t, err)
	})
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", hash)

	assert.NoError(t, VerifyPassword(hash, "hunter2"))
	assert.Error(t, VerifyPassword(hash, "wrong"))
}
