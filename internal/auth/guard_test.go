package auth

import (
	"errors"
	"testing"

	"github.com/herwingx/secret-santa/internal/apperror"
)

func newTestGuard(t *testing.T, withTokens bool) *Guard {
	t.Helper()
	admin, err := NewAdmin("letmein", "")
	if err != nil {
		t.Fatalf("NewAdmin() error = %v", err)
	}
	var tokens *TokenService
	if withTokens {
		tokens, err = NewTokenService(testSecret)
		if err != nil {
			t.Fatalf("NewTokenService() error = %v", err)
		}
	}
	return NewGuard(admin, tokens)
}

func TestAuthorize_Password(t *testing.T) {
	guard := newTestGuard(t, true)

	if err := guard.Authorize("letmein", ""); err != nil {
		t.Errorf("Authorize(correct password) error = %v", err)
	}
	if err := guard.Authorize("wrong", ""); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("Authorize(wrong password) error = %v, want ErrUnauthorized", err)
	}
}

func TestAuthorize_Token(t *testing.T) {
	guard := newTestGuard(t, true)

	token, _, err := guard.Login("letmein")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if err := guard.Authorize("", token); err != nil {
		t.Errorf("Authorize(valid token) error = %v", err)
	}
}

// An expired or forged token must not lock out a caller who also sent the
// correct password; the password is always an acceptable fallback.
func TestAuthorize_BadTokenGoodPassword(t *testing.T) {
	guard := newTestGuard(t, true)

	if err := guard.Authorize("letmein", "forged-token"); err != nil {
		t.Errorf("Authorize(bad token + good password) error = %v", err)
	}
	if err := guard.Authorize("wrong", "forged-token"); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("Authorize(bad token + bad password) error = %v, want ErrUnauthorized", err)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	guard := newTestGuard(t, true)

	if _, _, err := guard.Login("wrong"); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("Login(wrong password) error = %v, want ErrUnauthorized", err)
	}
}

func TestLogin_SessionsDisabled(t *testing.T) {
	guard := newTestGuard(t, false)

	if guard.SessionsEnabled() {
		t.Error("SessionsEnabled() = true without a token service")
	}
	if _, _, err := guard.Login("letmein"); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("Login(sessions disabled) error = %v, want ErrUnauthorized", err)
	}

	// Password auth still works without sessions.
	if err := guard.Authorize("letmein", ""); err != nil {
		t.Errorf("Authorize(password, sessions disabled) error = %v", err)
	}
}
