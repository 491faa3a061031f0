package common

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const DefaultTokenTTL = 24 * time.Hour

var ErrInvalidToken = errors.New("invalid token")

var (
	jwtMu  sync.RWMutex
	jwtKey = []byte("dev-secret-change-me")
	jwtTTL = DefaultTokenTTL
)

type Claims struct {
	UserID int `json:"user_id"`
	jwt.RegisteredClaims
}

// ConfigureJWT sets the signing secret and token lifetime used by
// IssueToken and ValidateToken.
func ConfigureJWT(secret string, ttl time.Duration) {
	jwtMu.Lock()
	defer jwtMu.Unlock()
	if secret != "" {
		jwtKey = []byte(secret)
	}
	if ttl > 0 {
		jwtTTL = ttl
	}
}

func IssueToken(userID int) (string, error) {
	jwtMu.RLock()
	key, ttl := jwtKey, jwtTTL
	jwtMu.RUnlock()

	now := time.Now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

func ValidateToken(tokenString string) (int, error) {
	jwtMu.RLock()
	key := jwtKey
	jwtMu.RUnlock()

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return key, nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == 0 {
		return 0, ErrInvalidToken
	}
	return claims.UserID, nil
}
