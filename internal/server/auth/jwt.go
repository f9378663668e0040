// Package auth issues and checks the bearer tokens of the storefront API.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/fzon/storefront/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the identity of a signed-in user.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"user_id"`
	Login    string `json:"login"`
	Username string `json:"username"`
}

// Identity is what a token says about its holder.
type Identity struct {
	UserID   string
	Login    string
	Username string
}

func GenerateToken(id Identity, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		UserID:   id.UserID,
		Login:    id.Login,
		Username: id.Username,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken validates tokenString and returns the identity it carries.
// Expired tokens give common.ErrTokenExpired, anything else that fails
// validation gives common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (Identity, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, common.ErrTokenExpired
		}
		return Identity{}, fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.UserID == "" {
		return Identity{}, common.ErrInvalidToken
	}

	return Identity{UserID: claims.UserID, Login: claims.Login, Username: claims.Username}, nil
}
