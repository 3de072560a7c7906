package utils

import (
	"time" // Time for token expiration

	"arcade_wallet/internal/domain"

	"github.com/golang-jwt/jwt/v5" // JWT library
)

// JWT Claims. Role travels in the token so handlers treat it as a capability
// checked once at the boundary instead of re-reading the user per request.
type Claims struct {
	UserID               string      `json:"uid"`
	Username             string      `json:"username"`
	Role                 domain.Role `json:"role"`
	jwt.RegisteredClaims             // Standard JWT claims
}

// GenerateJWT creates a signed token for a user.
func GenerateJWT(user *domain.User, secret string, ttl time.Duration) (string, error) {
	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseJWT parses and validates a token string.
func ParseJWT(tokenStr, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrSignatureInvalid
}
