package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type adminClaims struct {
	AdminID string `json:"admin_id"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateAdminToken creates a signed JWT for the provided back-office account.
func GenerateAdminToken(secret string, adminID uuid.UUID, role string, ttl time.Duration) (string, error) {
	claims := &adminClaims{
		AdminID: adminID.String(),
		Role:    role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   adminID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseAdminToken validates the token and returns the embedded admin ID and role.
func ParseAdminToken(secret, tokenString string) (uuid.UUID, string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &adminClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return uuid.Nil, "", err
	}

	if claims, ok := token.Claims.(*adminClaims); ok && token.Valid {
		id, err := uuid.Parse(claims.AdminID)
		if err != nil {
			return uuid.Nil, "", jwt.ErrTokenInvalidClaims
		}
		return id, claims.Role, nil
	}

	return uuid.Nil, "", jwt.ErrTokenInvalidClaims
}
