package utils

import (
	"seafood_shop/internal/pkg/config"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupJWT(t *testing.T) {
	prev := config.GlobalConfig.JWT
	config.GlobalConfig.JWT = config.JWTConfig{
		Secret:     "test-secret-test-secret-test-secret!",
		AccessTTL:  time.Hour,
		RefreshTTL: 7 * 24 * time.Hour,
	}
	t.Cleanup(func() { config.GlobalConfig.JWT = prev })
}

func TestGenerateTokenPair(t *testing.T) {
	setupJWT(t)

	pair, err := GenerateTokenPair("user-1", "a@b.vn", "admin")
	require.NoError(t, err)

	t.Run("access token carries identity", func(t *testing.T) {
		claims, err := ParseTyped(pair.AccessToken, TokenTypeAccess)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.UserID)
		assert.Equal(t, "admin", claims.Role)
		assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
	})

	t.Run("refresh token cannot be used as access", func(t *testing.T) {
		_, err := ParseTyped(pair.RefreshToken, TokenTypeAccess)
		assert.ErrorIs(t, err, ErrWrongTokenType)
	})

	t.Run("tampered token rejected", func(t *testing.T) {
		_, err := ParseToken(pair.AccessToken + "x")
		assert.Error(t, err)
	})
}
