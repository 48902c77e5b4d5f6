package httpapi

import (
	"context"
	"strings"
	"testing"
	"time"

	"retailpos/backend/internal/domain"
	"retailpos/backend/internal/inventory"
	"retailpos/backend/internal/store/memory"
)

func TestTokenRoundTrip(t *testing.T) {
	manager := NewAuthManager(testSecret, time.Hour, nil)

	token, err := manager.sign("admin", "admin", time.Now().UTC().Add(time.Hour))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	actor, err := manager.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if actor.Username != "admin" || actor.Role != "admin" {
		t.Fatalf("actor = %+v, want admin/admin", actor)
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	manager := NewAuthManager(testSecret, time.Hour, nil)

	token, err := manager.sign("admin", "admin", time.Now().UTC().Add(-time.Minute))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := manager.ParseToken(token); err == nil {
		t.Fatal("expired token must not parse")
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	signer := NewAuthManager(testSecret, time.Hour, nil)
	verifier := NewAuthManager(strings.Repeat("x", 40), time.Hour, nil)

	token, err := signer.sign("cashier", "cashier", time.Now().UTC().Add(time.Hour))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := verifier.ParseToken(token); err == nil {
		t.Fatal("token signed with another secret must not parse")
	}
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	t.Setenv("SEED_ADMIN_PASSWORD", "seed-admin-pass")
	t.Setenv("SEED_CASHIER_PASSWORD", "seed-cashier-pass")

	repo := memory.New(inventory.DefaultWindows())
	manager := NewAuthManager(testSecret, time.Hour, repo)

	// admin is already seeded; a second bootstrap must not conflict.
	if err := manager.EnsureAdmin(context.Background(), "admin", "other-password"); err != nil {
		t.Fatalf("EnsureAdmin on existing admin: %v", err)
	}

	// The seeded password still works; EnsureAdmin did not overwrite it.
	if _, err := manager.Login(domain.LoginRequest{Username: "admin", Password: "seed-admin-pass"}); err != nil {
		t.Fatalf("login with seeded password: %v", err)
	}
}

func TestLoginUpgradesPlainTextPasswords(t *testing.T) {
	t.Setenv("SEED_ADMIN_PASSWORD", "seed-admin-pass")
	t.Setenv("SEED_CASHIER_PASSWORD", "seed-cashier-pass")

	repo := memory.New(inventory.DefaultWindows())
	if err := repo.CreateUser(context.Background(), domain.UserAccount{
		Username: "legacy",
		Password: "plaintext-pass",
		Role:     "cashier",
		Active:   true,
	}); err != nil {
		t.Fatalf("create legacy user: %v", err)
	}

	manager := NewAuthManager(testSecret, time.Hour, repo)
	if _, err := manager.Login(domain.LoginRequest{Username: "legacy", Password: "plaintext-pass"}); err != nil {
		t.Fatalf("login after hash upgrade: %v", err)
	}

	users, err := repo.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	for _, user := range users {
		if user.Username == "legacy" {
			if !isPasswordHash(user.Password) {
				t.Fatalf("stored password not upgraded to a hash: %q", user.Password)
			}
			return
		}
	}
	t.Fatal("legacy user missing from store")
}
