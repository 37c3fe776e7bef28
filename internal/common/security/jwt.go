package security

import (
	"errors"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"

	"lodge_archive/internal/platform/config"
)

var TokenAuth *jwtauth.JWTAuth

func InitJWT() {
	TokenAuth = jwtauth.New("HS256", config.AppConfig.JWTKey, nil)
}

// GenerateToken mints an access token carrying only the user ID. Role, tier
// and status are deliberately absent: they are re-fetched from the database
// on every request, so a token issued before a demotion or rejection confers
// nothing after it.
func GenerateToken(userID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(config.AppConfig.JWTExp).Unix(),
	}
	_, tokenString, err := TokenAuth.Encode(claims)
	return tokenString, err
}

func GetUserIDFromClaims(claims map[string]interface{}) (string, error) {
	id, ok := claims["sub"].(string)
	if !ok || id == "" {
		return "", errors.New("sub claim is missing or not a string")
	}
	return id, nil
}
