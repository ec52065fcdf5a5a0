package auth

import (
	"testing"
	"time"

	"saferide/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	t.Parallel()

	manager := NewTokenManager("test-secret", time.Hour)
	user := &domain.User{ID: "user-1", Role: domain.RoleDriver}

	token, err := manager.Issue(user)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	userID, role, err := manager.Verify(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if userID != "user-1" {
		t.Errorf("expected subject user-1, got %q", userID)
	}
	if role != domain.RoleDriver {
		t.Errorf("expected role driver, got %q", role)
	}
}

func TestVerify_RejectsWrongSecret(t *testing.T) {
	t.Parallel()

	issuer := NewTokenManager("secret-a", time.Hour)
	verifier := NewTokenManager("secret-b", time.Hour)

	token, err := issuer.Issue(&domain.User{ID: "user-1", Role: domain.RolePassenger})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, _, err := verifier.Verify(token); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerify_RejectsExpiredToken(t *testing.T) {
	t.Parallel()

	manager := NewTokenManager("test-secret", -time.Minute)

	token, err := manager.Issue(&domain.User{ID: "user-1", Role: domain.RolePassenger})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, _, err := manager.Verify(token); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestVerify_RejectsGarbage(t *testing.T) {
	t.Parallel()

	manager := NewTokenManager("test-secret", time.Hour)
	if _, _, err := manager.Verify("not-a-token"); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestPasswordHashing(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("correct horse battery staple", 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hash == "correct horse battery staple" {
		t.Fatal("password stored in the clear")
	}

	if !CheckPassword(hash, "correct horse battery staple") {
		t.Error("correct password rejected")
	}
	if CheckPassword(hash, "wrong password") {
		t.Error("wrong password accepted")
	}
}
