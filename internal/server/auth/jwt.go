// Package auth issues and parses the HS256 session tokens handed to clients.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/weekplanner/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the standard claims plus the owning user. The session id
// travels as the registered "jti" claim.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
}

// Identity is what a verified token says about its bearer.
type Identity struct {
	UserID    string
	SessionID string
	ExpiresAt time.Time
}

func GenerateToken(userID, sessionID string, secretKey []byte, issuedAt time.Time, validity time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(validity)),
		},
		UserID: userID,
	})

	return token.SignedString(secretKey)
}

// ParseToken validates the signature and expiry of tokenString. Expired
// tokens yield common.ErrTokenExpired, anything else that fails
// common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (Identity, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, common.ErrTokenExpired
		}
		return Identity{}, common.ErrInvalidToken
	}

	if !token.Valid || claims.UserID == "" || claims.ID == "" {
		return Identity{}, common.ErrInvalidToken
	}

	id := Identity{UserID: claims.UserID, SessionID: claims.ID}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	return id, nil
}
