/*
Package jwt implements the identity verifier for the arena.

Bearer credentials are issued by the external identity system and validated here,
both for HTTP requests (Authorization header) and realtime connections (query token).
*/
package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt"
)

const (
	// IdentityExpiration defines the duration for which issued identity tokens are honored.
	// Nothing in this module references it; production tokens carry their own expiry.
	IdentityExpiration = 24 * time.Hour

	// TokenIssuer identifies the expected issuer of the token.
	TokenIssuer = "BitArena-Identity"
)

// GenerateToken creates and signs a new JWT Token string based on the provided Payload struct.
// The arena itself never issues tokens in production; this exists for tooling and tests.
func GenerateToken(payload *Payload, secretKey string, duration time.Duration) (string, error) {
	now := time.Now()

	payload.StandardClaims = jwt.StandardClaims{
		ExpiresAt: now.Add(duration).Unix(),
		IssuedAt:  now.Unix(),
		Issuer:    TokenIssuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, payload)

	return token.SignedString([]byte(secretKey))
}

// ParseToken parses and validates the JWT Token string using the provided secretKey.
func ParseToken(tokenString string, secretKey string) (*Payload, error) {
	claims := &Payload{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secretKey), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid or expired token")
	}

	if claims.UserID == "" || claims.Username == "" {
		return nil, errors.New("token is missing identity claims")
	}

	return claims, nil
}
