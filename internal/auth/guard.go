package auth

import (
	"time"

	"github.com/herwingx/secret-santa/internal/apperror"
)

// Guard is the single authorization decision point for admin operations.
// It accepts either credential form: a bearer session token (when JWT is
// configured) or the shared password itself.
type Guard struct {
	admin  *Admin
	tokens *TokenService // nil when JWT_SECRET is unset
}

// NewGuard wires the password verifier and the (optional) token service.
func NewGuard(admin *Admin, tokens *TokenService) *Guard {
	return &Guard{admin: admin, tokens: tokens}
}

// Authorize grants access when either a valid bearer token or the correct
// password is presented. A bad token does NOT poison a good password; a
// client whose session just expired can still fall back to the body
// password, which matches how the wheel's admin panel behaves.
func (g *Guard) Authorize(password, token string) error {
	if token != "" && g.tokens != nil {
		if err := g.tokens.Validate(token); err == nil {
			return nil
		}
	}
	return g.admin.Verify(password)
}

// Login exchanges the shared password for a session token. Only the password
// is accepted here: a token must not be able to mint further tokens, or
// expiry would be meaningless.
func (g *Guard) Login(password string) (string, time.Time, error) {
	if g.tokens == nil {
		return "", time.Time{}, apperror.Unauthorized("session login is not enabled")
	}
	if err := g.admin.Verify(password); err != nil {
		return "", time.Time{}, err
	}
	return g.tokens.Generate()
}

// SessionsEnabled reports whether token login is configured.
func (g *Guard) SessionsEnabled() bool {
	return g.tokens != nil
}
