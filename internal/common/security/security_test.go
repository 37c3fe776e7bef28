package security

import (
	"context"
	"testing"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lodge_archive/internal/platform/config"
)

func setup(t *testing.T) {
	t.Helper()
	config.AppConfig = &config.Config{JWTKey: []byte("test-secret"), JWTExp: time.Hour}
	InitJWT()
}

func TestTokenRoundTrip(t *testing.T) {
	setup(t)

	tokenString, err := GenerateToken("user-123")
	require.NoError(t, err)

	token, err := jwtauth.VerifyToken(TokenAuth, tokenString)
	require.NoError(t, err)

	claims, err := token.AsMap(context.Background())
	require.NoError(t, err)

	userID, err := GetUserIDFromClaims(claims)
	require.NoError(t, err)
	assert.Equal(t, "user-123", userID)

	// The token never carries role, tier or status.
	assert.NotContains(t, claims, "role")
	assert.NotContains(t, claims, "level")
	assert.NotContains(t, claims, "status")
}

func TestTokenExpiry(t *testing.T) {
	config.AppConfig = &config.Config{JWTKey: []byte("test-secret"), JWTExp: -time.Minute}
	InitJWT()

	tokenString, err := GenerateToken("user-123")
	require.NoError(t, err)

	_, err = jwtauth.VerifyToken(TokenAuth, tokenString)
	assert.Error(t, err, "expired token must not verify")
}

func TestTokenWrongKey(t *testing.T) {
	setup(t)
	tokenString, err := GenerateToken("user-123")
	require.NoError(t, err)

	other := jwtauth.New("HS256", []byte("different-secret"), nil)
	_, err = jwtauth.VerifyToken(other, tokenString)
	assert.Error(t, err)
}

func TestGetUserIDFromClaims(t *testing.T) {
	_, err := GetUserIDFromClaims(map[string]interface{}{})
	assert.Error(t, err)
	_, err = GetUserIDFromClaims(map[string]interface{}{"sub": 42})
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", hash)

	assert.True(t, CheckPasswordHash("secret123", hash))
	assert.False(t, CheckPasswordHash("secret124", hash))
	assert.False(t, CheckPasswordHash("", hash))
}
