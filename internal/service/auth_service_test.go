package service

import (
	"errors"
	"testing"
	"time"

	"github.com/cmaas/internal/db"
)

func TestRegisterCreatesTenantAndUser(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewAuthService(db.DB, "test-secret", time.Hour)

	user, err := svc.Register("Admin@Example.com", "hunter22", "Admin")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.Email != "admin@example.com" {
		t.Fatalf("expected normalized email, got %q", user.Email)
	}
	if user.TenantID == 0 {
		t.Fatal("expected a tenant to be created")
	}

	if _, err := svc.Register("admin@example.com", "other", ""); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestAuthenticateChecksPassword(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewAuthService(db.DB, "test-secret", time.Hour)
	if _, err := svc.Register("admin@example.com", "hunter22", ""); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	if _, err := svc.Authenticate("admin@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	user, err := svc.Authenticate("admin@example.com", "hunter22")
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if user.Email != "admin@example.com" {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewAuthService(db.DB, "test-secret", time.Hour)
	user, err := svc.Register("admin@example.com", "hunter22", "")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	token, err := svc.IssueToken(user)
	if err != nil {
		t.Fatalf("IssueToken returned error: %v", err)
	}

	claims, err := svc.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken returned error: %v", err)
	}
	if claims.UserID != user.ID || claims.TenantID != user.TenantID {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	other := NewAuthService(db.DB, "different-secret", time.Hour)
	if _, err := other.ParseToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
}

func TestAPIKeyIssueAndVerify(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewAPIKeyService(db.DB)

	if _, _, err := svc.Issue(1, "  "); !errors.Is(err, ErrAPIKeyNameRequired) {
		t.Fatalf("expected ErrAPIKeyNameRequired, got %v", err)
	}

	key, secret, err := svc.Issue(1, "Production")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if key.Hash == secret {
		t.Fatal("full secret must not be stored")
	}

	verified, err := svc.Verify(secret)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if verified.ID != key.ID || verified.LastUsedAt == nil {
		t.Fatalf("unexpected verified key: %+v", verified)
	}

	if _, err := svc.Verify("cmk_not-a-real-key"); !errors.Is(err, ErrAPIKeyInvalid) {
		t.Fatalf("expected ErrAPIKeyInvalid, got %v", err)
	}

	if err := svc.Revoke(1, key.ID); err != nil {
		t.Fatalf("Revoke returned error: %v", err)
	}
	if _, err := svc.Verify(secret); !errors.Is(err, ErrAPIKeyInvalid) {
		t.Fatalf("expected ErrAPIKeyInvalid after revoke, got %v", err)
	}
}
