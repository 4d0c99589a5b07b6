package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_GenerateAndValidate(t *testing.T) {
	svc := NewJWTService("secret", "embedded-chat", time.Hour)

	token, err := svc.GenerateToken("user-1", "org_1")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "org_1", claims.OrganizationID)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "embedded-chat", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestJWTService_Rejects(t *testing.T) {
	svc := NewJWTService("secret", "embedded-chat", time.Hour)

	t.Run("wrong secret", func(t *testing.T) {
		token, err := NewJWTService("other", "embedded-chat", time.Hour).GenerateToken("u", "org_1")
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		token, err := NewJWTService("secret", "someone-else", time.Hour).GenerateToken("u", "org_1")
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		token, err := NewJWTService("secret", "embedded-chat", -time.Minute).GenerateToken("u", "org_1")
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("unsigned", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{OrganizationID: "org_1"})
		signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = svc.ValidateToken(signed)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-token")
		assert.Error(t, err)
	})
}
