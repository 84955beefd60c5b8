package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/herwingx/secret-santa/internal/apperror"
)

// adminSubject is the only identity a session token can carry. There is one
// admin; the token just proves "this caller typed the password recently".
const adminSubject = "admin"

// tokenTTL bounds how long a login lasts. Short on purpose: the admin panel
// is opened for a minute during the party, not left logged in for a week.
const tokenTTL = 30 * time.Minute

// TokenService issues and validates admin session JWTs.
//
// WHY TOKENS AT ALL?
// The original admin contract sends the password with every request. That
// still works, but it means the browser keeps the plaintext in memory for the
// whole session. Login exchanges it once for a signed, expiring token; the
// password can then be forgotten client-side.
//
// The token is an HS256 JWT: stateless, so validation is a signature check
// with no storage lookup.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given HMAC secret.
// The secret should be at least 32 bytes of random data in production,
// e.g. JWT_SECRET=$(openssl rand -hex 32).
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// Generate creates a signed admin session token and returns it with its
// expiry time.
func (s *TokenService) Generate() (string, time.Time, error) {
	now := time.Now()
	expires := now.Add(tokenTTL)

	claims := jwt.RegisteredClaims{
		Subject:   adminSubject,
		Issuer:    "secret-santa",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, expires, nil
}

// Validate checks signature, expiry and subject. Any failure collapses into
// apperror.ErrUnauthorized; a forged token learns nothing from the error.
func (s *TokenService) Validate(tokenString string) error {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (interface{}, error) {
			// Pin the algorithm. Without this check a token signed with
			// "none" or an asymmetric scheme could slip through.
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return s.secret, nil
		},
	)
	if err != nil || !token.Valid {
		return apperror.Unauthorized("invalid or expired session token")
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject != adminSubject {
		return apperror.Unauthorized("invalid or expired session token")
	}
	return nil
}
