package utils

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignJWTRoundTrip(t *testing.T) {
	token, err := SignJWT("secret", "user-123", "creator", 60)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "creator", claims.Role)
}

func TestSignJWTWrongSecret(t *testing.T) {
	token, err := SignJWT("secret", "user-123", "creator", 60)
	require.NoError(t, err)

	_, err = jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte("other-secret"), nil
	})
	assert.Error(t, err)
}

func TestSignJWTExpired(t *testing.T) {
	token, err := SignJWT("secret", "user-123", "creator", -1)
	require.NoError(t, err)

	_, err = jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}
