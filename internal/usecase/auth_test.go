package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/srCredoftn/dao-dash/internal/core/domain"
	"github.com/srCredoftn/dao-dash/internal/repository/memory"
)

func TestLoginSuccessStateless(t *testing.T) {
	users := memory.NewUserRepository()
	seedUser(t, users, "u1", "marie@example.com", "CorrectHorse1", domain.RoleUser)

	svc, err := NewAuthService(users, newIssuer(t), nil, nil)
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}

	result, err := svc.Login(context.Background(), "  Marie@Example.COM ", "CorrectHorse1")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if result.Token == "" {
		t.Fatal("expected a session token")
	}
	if result.User.ID != "u1" {
		t.Fatalf("expected u1, got %s", result.User.ID)
	}
	if result.User.PasswordHash != "" {
		t.Fatal("expected password hash stripped from login result")
	}
	if result.RequiresPasswordChange {
		t.Fatal("durable password should not require a change")
	}

	stored, err := users.GetByID(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.LastLogin == nil {
		t.Fatal("expected last login recorded")
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	users := memory.NewUserRepository()
	seedUser(t, users, "u1", "marie@example.com", "CorrectHorse1", domain.RoleUser)

	inactive := seedUser(t, users, "u2", "paul@example.com", "CorrectHorse1", domain.RoleUser)
	if err := users.SetActive(context.Background(), inactive.ID, false); err != nil {
		t.Fatalf("SetActive: %v", err)
	}

	svc, err := NewAuthService(users, newIssuer(t), nil, nil)
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}

	cases := map[string]struct {
		email    string
		password string
	}{
		"unknown email":       {"nobody@example.com", "CorrectHorse1"},
		"wrong password":      {"marie@example.com", "WrongHorse1"},
		"deactivated account": {"paul@example.com", "CorrectHorse1"},
		"empty password":      {"marie@example.com", ""},
	}

	for name, tc := range cases {
		if _, err := svc.Login(context.Background(), tc.email, tc.password); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("%s: expected ErrInvalidCredentials, got %v", name, err)
		}
	}
}

func TestLoginTemporaryPasswordWindow(t *testing.T) {
	users := memory.NewUserRepository()
	user := seedUser(t, users, "u1", "marie@example.com", "TempPass99", domain.RoleUser)

	issued := time.Now().UTC()
	expires := issued.Add(24 * time.Hour)
	user.IsTemporaryPassword = true
	user.TempPasswordExpiresAt = &expires

	// Re-seed with the temporary flag via a direct password update.
	if err := users.UpdatePassword(context.Background(), user.ID, passwordUpdateFor(t, "TempPass99", true, &expires, issued)); err != nil {
		t.Fatalf("UpdatePassword: %v", err)
	}

	current := issued
	svc, err := NewAuthService(users, newIssuer(t), nil, nil)
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}
	svc.WithClock(func() time.Time { return current })

	// Inside the window the credential works and flags the change requirement.
	result, err := svc.Login(context.Background(), "marie@example.com", "TempPass99")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if !result.RequiresPasswordChange {
		t.Fatal("expected RequiresPasswordChange for temporary credential")
	}

	// Past the window the same correct password is rejected generically.
	current = issued.Add(24*time.Hour + time.Minute)
	if _, err := svc.Login(context.Background(), "marie@example.com", "TempPass99"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials after expiry, got %v", err)
	}
}

func TestCurrentUserStateless(t *testing.T) {
	users := memory.NewUserRepository()
	seedUser(t, users, "u1", "marie@example.com", "CorrectHorse1", domain.RoleUser)

	svc, err := NewAuthService(users, newIssuer(t), nil, nil)
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}

	result, err := svc.Login(context.Background(), "marie@example.com", "CorrectHorse1")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	user, err := svc.CurrentUser(context.Background(), result.Token)
	if err != nil {
		t.Fatalf("CurrentUser returned error: %v", err)
	}
	if user.ID != "u1" {
		t.Fatalf("expected u1, got %s", user.ID)
	}

	if _, err := svc.CurrentUser(context.Background(), "not-a-token"); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}

	// Deactivation invalidates even a valid signed token.
	if err := users.SetActive(context.Background(), "u1", false); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	if _, err := svc.CurrentUser(context.Background(), result.Token); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for deactivated user, got %v", err)
	}
}

func TestLogoutStatefulRevokesSession(t *testing.T) {
	users := memory.NewUserRepository()
	seedUser(t, users, "u1", "marie@example.com", "CorrectHorse1", domain.RoleUser)
	sessions := memory.NewSessionStore()

	svc, err := NewAuthService(users, nil, sessions, nil)
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}

	result, err := svc.Login(context.Background(), "marie@example.com", "CorrectHorse1")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	if _, err := svc.CurrentUser(context.Background(), result.Token); err != nil {
		t.Fatalf("CurrentUser returned error: %v", err)
	}

	if err := svc.Logout(context.Background(), result.Token); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}

	if _, err := svc.CurrentUser(context.Background(), result.Token); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated after logout, got %v", err)
	}
}

func TestLogoutStatelessIsNoOp(t *testing.T) {
	users := memory.NewUserRepository()
	seedUser(t, users, "u1", "marie@example.com", "CorrectHorse1", domain.RoleUser)

	svc, err := NewAuthService(users, newIssuer(t), nil, nil)
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}

	result, err := svc.Login(context.Background(), "marie@example.com", "CorrectHorse1")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	if err := svc.Logout(context.Background(), result.Token); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}

	// Signed tokens cannot be recalled; the token still verifies.
	if _, err := svc.CurrentUser(context.Background(), result.Token); err != nil {
		t.Fatalf("expected stateless token still valid, got %v", err)
	}
}

func TestLogoutUnknownTokenIsNoError(t *testing.T) {
	users := memory.NewUserRepository()
	sessions := memory.NewSessionStore()

	svc, err := NewAuthService(users, nil, sessions, nil)
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}

	// An absent or already revoked token means the caller is logged out.
	if err := svc.Logout(context.Background(), ""); err != nil {
		t.Fatalf("Logout with empty token returned error: %v", err)
	}
	if err := svc.Logout(context.Background(), "never-issued"); err != nil {
		t.Fatalf("Logout with unknown token returned error: %v", err)
	}
}

func TestSessionTTLIsConfigurable(t *testing.T) {
	users := memory.NewUserRepository()
	seedUser(t, users, "u1", "marie@example.com", "CorrectHorse1", domain.RoleUser)

	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	current := start
	sessions := memory.NewSessionStore().WithClock(func() time.Time { return current })

	svc, err := NewAuthService(users, nil, sessions, nil)
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}
	svc.WithSessionTTL(time.Hour)
	svc.WithClock(func() time.Time { return current })

	result, err := svc.Login(context.Background(), "marie@example.com", "CorrectHorse1")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	current = start.Add(59 * time.Minute)
	if _, err := svc.CurrentUser(context.Background(), result.Token); err != nil {
		t.Fatalf("CurrentUser inside the window returned error: %v", err)
	}

	current = start.Add(61 * time.Minute)
	if _, err := svc.CurrentUser(context.Background(), result.Token); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated after the configured lifetime, got %v", err)
	}
}
