package jwtauth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "nestsync/pkg/domain-errors"
)

func TestValidateToken(t *testing.T) {
	svc := NewService("test-signing-key", "nestsync", "nestsync-app")

	t.Run("round trip", func(t *testing.T) {
		token, err := svc.GenerateAccessToken("parent-1", "session-1", "mobile", time.Hour)
		require.NoError(t, err)

		claims, err := svc.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, "parent-1", claims.SubjectID)
		assert.Equal(t, "session-1", claims.SessionID)
		assert.Equal(t, "mobile", claims.ClientID)
	})

	t.Run("expired token rejected", func(t *testing.T) {
		token, err := svc.GenerateAccessToken("parent-1", "session-1", "mobile", -time.Minute)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		require.Error(t, err)
		assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
	})

	t.Run("wrong key rejected", func(t *testing.T) {
		other := NewService("other-key", "nestsync", "nestsync-app")
		token, err := other.GenerateAccessToken("parent-1", "session-1", "mobile", time.Hour)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		require.Error(t, err)
		assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
	})

	t.Run("garbage rejected", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-token")
		require.Error(t, err)
	})
}
