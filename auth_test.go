package main

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func newTestAuth(t *testing.T) *Auth {
	t.Helper()
	prev := bcryptCost
	bcryptCost = bcrypt.MinCost
	t.Cleanup(func() { bcryptCost = prev })
	return NewAuth(openTestDB(t))
}

func TestAuthRegisterLogin(t *testing.T) {
	a := newTestAuth(t)

	id, token, err := a.Register("maverick", "secret")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	pid, name, err := a.ValidateToken(token)
	if err != nil || pid != id || name != "maverick" {
		t.Fatalf("validate: %d %q %v", pid, name, err)
	}

	loginID, _, err := a.Login("maverick", "secret", "1.2.3.4")
	if err != nil || loginID != id {
		t.Fatalf("login: %d %v", loginID, err)
	}
	if _, _, err := a.Login("maverick", "wrong", "1.2.3.4"); !errors.Is(err, ErrBadCredentials) {
		t.Errorf("expected bad credentials, got %v", err)
	}
	if _, _, err := a.Login("nobody", "secret", "1.2.3.4"); !errors.Is(err, ErrBadCredentials) {
		t.Errorf("expected bad credentials for unknown user, got %v", err)
	}
}

func TestAuthRegisterValidation(t *testing.T) {
	a := newTestAuth(t)
	if _, _, err := a.Register("x", "secret"); err == nil {
		t.Error("short username should fail")
	}
	if _, _, err := a.Register(strings.Repeat("x", 17), "secret"); err == nil {
		t.Error("long username should fail")
	}
	if _, _, err := a.Register("goose", "abc"); err == nil {
		t.Error("short password should fail")
	}
	a.Register("goose", "secret")
	if _, _, err := a.Register("goose", "secret"); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("expected username taken, got %v", err)
	}
}

func TestAuthRateLimit(t *testing.T) {
	a := newTestAuth(t)
	for i := 0; i < maxLoginAttempts; i++ {
		if _, _, err := a.Login("nobody", "pw", "9.9.9.9"); errors.Is(err, ErrRateLimited) {
			t.Fatalf("attempt %d rate limited too early", i+1)
		}
	}
	if _, _, err := a.Login("nobody", "pw", "9.9.9.9"); !errors.Is(err, ErrRateLimited) {
		t.Errorf("expected rate limit, got %v", err)
	}
	if _, _, err := a.Login("nobody", "pw", "8.8.8.8"); errors.Is(err, ErrRateLimited) {
		t.Error("other IPs should not be limited")
	}
}

func TestAuthSecretPersists(t *testing.T) {
	prev := bcryptCost
	bcryptCost = bcrypt.MinCost
	defer func() { bcryptCost = prev }()

	db := openTestDB(t)
	_, token, err := NewAuth(db).Register("iceman", "secret")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, _, err := NewAuth(db).ValidateToken(token); err != nil {
		t.Errorf("token should survive a restart: %v", err)
	}
	if _, _, err := NewAuth(nil).ValidateToken(token); err == nil {
		t.Error("a different secret should reject the token")
	}
}

func TestAuthWithoutDatabase(t *testing.T) {
	a := NewAuth(nil)
	if _, _, err := a.Register("viper", "secret"); !errors.Is(err, ErrNoDatabase) {
		t.Errorf("expected no database, got %v", err)
	}
	if _, _, err := a.ValidateToken("garbage"); err == nil {
		t.Error("garbage token should fail")
	}
}

func TestGeneratePilotName(t *testing.T) {
	name := GeneratePilotName()
	if !strings.HasPrefix(name, "Pilot_") || len(name) != 10 {
		t.Errorf("unexpected pilot name %q", name)
	}
}
