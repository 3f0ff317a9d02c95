package security

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for malformed, expired, or mis-signed tokens.
var ErrInvalidToken = errors.New("invalid token")

// userClaims carries the token subject, the user's ID in decimal form.
type userClaims struct {
	jwt.RegisteredClaims
}

// SignUserToken issues an HS256 token whose subject is the user ID.
func SignUserToken(secret string, userID uint64, expiry time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("security: missing jwt secret")
	}
	now := time.Now()
	claims := userClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, errSign := token.SignedString([]byte(secret))
	if errSign != nil {
		return "", fmt.Errorf("security: sign token: %w", errSign)
	}
	return signed, nil
}

// ParseUserToken validates the token signature and expiry and returns the
// subject user ID.
func ParseUserToken(secret, tokenString string) (uint64, error) {
	parsed, errParse := jwt.ParseWithClaims(tokenString, &userClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if errParse != nil {
		return 0, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*userClaims)
	if !ok || !parsed.Valid {
		return 0, ErrInvalidToken
	}
	userID, errID := strconv.ParseUint(claims.Subject, 10, 64)
	if errID != nil || userID == 0 {
		return 0, ErrInvalidToken
	}
	return userID, nil
}
