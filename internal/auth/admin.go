// Package auth guards the admin surface.
//
// The raffle has exactly one credential: the shared admin secret. There are
// no user accounts; participants identify themselves by picking their own
// name off the wheel, and the only thing worth protecting is the admin view
// that reveals every match.
//
// Two ways to configure the secret:
//   - ADMIN_PASSWORD: the plaintext, compared in constant time. Fine for a
//     living-room deployment.
//   - ADMIN_PASSWORD_HASH: a bcrypt hash of it. Preferable anywhere the
//     environment might leak (process listings, crash dumps, shared hosts),
//     the plaintext then never touches the server at all.
//
// WHY CONSTANT TIME?
// == on strings returns at the first differing byte, which lets an attacker
// measure their way through the password one character at a time. bcrypt's
// CompareHashAndPassword is immune by construction; for the plaintext mode we
// use subtle.ConstantTimeCompare for the same property.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/herwingx/secret-santa/internal/apperror"
)

// Admin verifies the shared admin secret.
type Admin struct {
	password string // plaintext mode
	hash     []byte // bcrypt mode; wins when both are set
}

// NewAdmin builds an Admin from the configured credential. Exactly one of the
// two should normally be set; the hash takes precedence when both are.
func NewAdmin(password, passwordHash string) (*Admin, error) {
	if password == "" && passwordHash == "" {
		return nil, errors.New("auth: no admin credential configured")
	}
	if passwordHash != "" {
		// Fail fast on a malformed hash instead of rejecting every login at
		// runtime with a misleading "wrong password".
		if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
			return nil, fmt.Errorf("auth: invalid ADMIN_PASSWORD_HASH: %w", err)
		}
		return &Admin{hash: []byte(passwordHash)}, nil
	}
	return &Admin{password: password}, nil
}

// Verify checks a presented secret, returning apperror.ErrUnauthorized on
// mismatch. The error carries no detail about which mode was used or why it
// failed; the caller only learns "wrong password".
func (a *Admin) Verify(secret string) error {
	if secret == "" {
		return apperror.Unauthorized("incorrect password")
	}

	if a.hash != nil {
		if err := bcrypt.CompareHashAndPassword(a.hash, []byte(secret)); err != nil {
			return apperror.Unauthorized("incorrect password")
		}
		return nil
	}

	if subtle.ConstantTimeCompare([]byte(a.password), []byte(secret)) != 1 {
		return apperror.Unauthorized("incorrect password")
	}
	return nil
}
