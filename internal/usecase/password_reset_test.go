package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/srCredoftn/dao-dash/internal/core/domain"
	"github.com/srCredoftn/dao-dash/internal/core/port"
	"github.com/srCredoftn/dao-dash/internal/infra/security"
	"github.com/srCredoftn/dao-dash/internal/repository/memory"
)

// The collaborator parameters are interface-typed so a nil argument stays a
// nil interface inside the service instead of a non-nil interface wrapping a
// nil pointer.
func newResetService(t *testing.T, users *memory.UserRepository, sessions port.SessionStore, mailer port.Mailer) *PasswordResetService {
	t.Helper()

	svc, err := NewPasswordResetService(users, sessions, mailer, nil, security.DefaultPasswordValidator(), nil)
	if err != nil {
		t.Fatalf("NewPasswordResetService: %v", err)
	}

	return svc
}

func TestForgotIsIndistinguishable(t *testing.T) {
	users := memory.NewUserRepository()
	seedUser(t, users, "u1", "known@example.com", "CorrectHorse1", domain.RoleUser)

	svc := newResetService(t, users, nil, nil)

	if err := svc.Forgot(context.Background(), "known@example.com"); err != nil {
		t.Fatalf("Forgot for known email returned error: %v", err)
	}
	if err := svc.Forgot(context.Background(), "unknown@example.com"); err != nil {
		t.Fatalf("Forgot for unknown email returned error: %v", err)
	}
	if err := svc.Forgot(context.Background(), ""); err != nil {
		t.Fatalf("Forgot for empty email returned error: %v", err)
	}
}

func TestResetFlowEndToEnd(t *testing.T) {
	users := memory.NewUserRepository()
	user := seedUser(t, users, "u1", "marie@example.com", "OldPassword1", domain.RoleUser)
	mailer := newMailRecorder()

	svc := newResetService(t, users, nil, mailer)

	if err := svc.Forgot(context.Background(), "Marie@Example.com"); err != nil {
		t.Fatalf("Forgot returned error: %v", err)
	}

	msg := mailer.wait(t)
	code := extractSecret(t, msg.Body)
	if len(code) != 6 {
		t.Fatalf("expected a 6-digit code, got %q", code)
	}

	// Verification does not consume the code.
	if err := svc.VerifyCode(context.Background(), user.Email, code); err != nil {
		t.Fatalf("VerifyCode returned error: %v", err)
	}
	if err := svc.VerifyCode(context.Background(), user.Email, code); err != nil {
		t.Fatalf("VerifyCode second call returned error: %v", err)
	}

	if err := svc.Reset(context.Background(), user.Email, code, "BrandNew7Pass"); err != nil {
		t.Fatalf("Reset returned error: %v", err)
	}

	// The code is spent.
	if err := svc.Reset(context.Background(), user.Email, code, "AnotherNew7Pass"); !errors.Is(err, ErrInvalidResetCode) {
		t.Fatalf("expected ErrInvalidResetCode on reuse, got %v", err)
	}

	auth, err := NewAuthService(users, newIssuer(t), nil, nil)
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}
	if _, err := auth.Login(context.Background(), user.Email, "BrandNew7Pass"); err != nil {
		t.Fatalf("Login with new password failed: %v", err)
	}
	if _, err := auth.Login(context.Background(), user.Email, "OldPassword1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected old password rejected, got %v", err)
	}
}

func TestResetWithWrongCode(t *testing.T) {
	users := memory.NewUserRepository()
	user := seedUser(t, users, "u1", "marie@example.com", "OldPassword1", domain.RoleUser)
	mailer := newMailRecorder()

	svc := newResetService(t, users, nil, mailer)

	if err := svc.Forgot(context.Background(), user.Email); err != nil {
		t.Fatalf("Forgot returned error: %v", err)
	}
	mailer.wait(t)

	if err := svc.Reset(context.Background(), user.Email, "000000", "BrandNew7Pass"); !errors.Is(err, ErrInvalidResetCode) {
		t.Fatalf("expected ErrInvalidResetCode, got %v", err)
	}
	if err := svc.VerifyCode(context.Background(), user.Email, "000000"); !errors.Is(err, ErrInvalidResetCode) {
		// Vanishingly unlikely collision with the generated code.
		t.Fatalf("expected ErrInvalidResetCode, got %v", err)
	}
}

func TestResetCodeExpires(t *testing.T) {
	users := memory.NewUserRepository()
	user := seedUser(t, users, "u1", "marie@example.com", "OldPassword1", domain.RoleUser)
	mailer := newMailRecorder()

	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	current := start

	svc := newResetService(t, users, nil, mailer).WithClock(func() time.Time { return current })

	if err := svc.Forgot(context.Background(), user.Email); err != nil {
		t.Fatalf("Forgot returned error: %v", err)
	}
	code := extractSecret(t, mailer.wait(t).Body)

	// Still valid just inside the window.
	current = start.Add(14 * time.Minute)
	if err := svc.VerifyCode(context.Background(), user.Email, code); err != nil {
		t.Fatalf("VerifyCode inside window returned error: %v", err)
	}

	// Dead just outside it.
	current = start.Add(15*time.Minute + time.Second)
	if err := svc.VerifyCode(context.Background(), user.Email, code); !errors.Is(err, ErrInvalidResetCode) {
		t.Fatalf("expected ErrInvalidResetCode after expiry, got %v", err)
	}
	if err := svc.Reset(context.Background(), user.Email, code, "BrandNew7Pass"); !errors.Is(err, ErrInvalidResetCode) {
		t.Fatalf("expected ErrInvalidResetCode after expiry, got %v", err)
	}
}

func TestNewCodeReplacesPrevious(t *testing.T) {
	users := memory.NewUserRepository()
	user := seedUser(t, users, "u1", "marie@example.com", "OldPassword1", domain.RoleUser)
	mailer := newMailRecorder()

	svc := newResetService(t, users, nil, mailer)

	if err := svc.Forgot(context.Background(), user.Email); err != nil {
		t.Fatalf("Forgot returned error: %v", err)
	}
	first := extractSecret(t, mailer.wait(t).Body)

	if err := svc.Forgot(context.Background(), user.Email); err != nil {
		t.Fatalf("Forgot returned error: %v", err)
	}
	second := extractSecret(t, mailer.wait(t).Body)

	if first == second {
		t.Skip("generated codes collided; cannot distinguish replacement")
	}

	if err := svc.Reset(context.Background(), user.Email, first, "BrandNew7Pass"); !errors.Is(err, ErrInvalidResetCode) {
		t.Fatalf("expected first code invalidated, got %v", err)
	}
	if err := svc.Reset(context.Background(), user.Email, second, "BrandNew7Pass"); err != nil {
		t.Fatalf("Reset with replacement code returned error: %v", err)
	}
}

func TestResetRevokesSessions(t *testing.T) {
	users := memory.NewUserRepository()
	user := seedUser(t, users, "u1", "marie@example.com", "OldPassword1", domain.RoleUser)
	sessions := memory.NewSessionStore()
	mailer := newMailRecorder()

	auth, err := NewAuthService(users, nil, sessions, nil)
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}
	login, err := auth.Login(context.Background(), user.Email, "OldPassword1")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	svc := newResetService(t, users, sessions, mailer)

	if err := svc.Forgot(context.Background(), user.Email); err != nil {
		t.Fatalf("Forgot returned error: %v", err)
	}
	code := extractSecret(t, mailer.wait(t).Body)

	if err := svc.Reset(context.Background(), user.Email, code, "BrandNew7Pass"); err != nil {
		t.Fatalf("Reset returned error: %v", err)
	}

	if _, err := auth.CurrentUser(context.Background(), login.Token); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected session revoked after reset, got %v", err)
	}
}

func TestResetEnforcesPasswordPolicy(t *testing.T) {
	users := memory.NewUserRepository()
	user := seedUser(t, users, "u1", "marie@example.com", "OldPassword1", domain.RoleUser)
	mailer := newMailRecorder()

	svc := newResetService(t, users, nil, mailer)

	if err := svc.Forgot(context.Background(), user.Email); err != nil {
		t.Fatalf("Forgot returned error: %v", err)
	}
	code := extractSecret(t, mailer.wait(t).Body)

	var policyErr *security.PasswordValidationError
	if err := svc.Reset(context.Background(), user.Email, code, "weak"); !errors.As(err, &policyErr) {
		t.Fatalf("expected policy rejection, got %v", err)
	}

	// A rejected password does not burn the code.
	if err := svc.Reset(context.Background(), user.Email, code, "BrandNew7Pass"); err != nil {
		t.Fatalf("Reset after policy rejection returned error: %v", err)
	}
}

func TestResetMailStatesConfiguredExpiry(t *testing.T) {
	users := memory.NewUserRepository()
	user := seedUser(t, users, "u1", "marie@example.com", "OldPassword1", domain.RoleUser)
	mailer := newMailRecorder()

	svc := newResetService(t, users, nil, mailer).WithCodeTTL(30 * time.Minute)

	if err := svc.Forgot(context.Background(), user.Email); err != nil {
		t.Fatalf("Forgot returned error: %v", err)
	}

	msg := mailer.wait(t)
	if !strings.Contains(msg.Body, "30 minutes") {
		t.Fatalf("expected the mail to state the configured expiry, got %q", msg.Body)
	}
}

func TestForgotForInactiveAccountIsSilent(t *testing.T) {
	users := memory.NewUserRepository()
	user := seedUser(t, users, "u1", "marie@example.com", "OldPassword1", domain.RoleUser)
	if err := users.SetActive(context.Background(), user.ID, false); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	mailer := newMailRecorder()

	svc := newResetService(t, users, nil, mailer)

	if err := svc.Forgot(context.Background(), user.Email); err != nil {
		t.Fatalf("Forgot returned error: %v", err)
	}

	select {
	case msg := <-mailer.ch:
		t.Fatalf("expected no mail for inactive account, got %+v", msg)
	case <-time.After(100 * time.Millisecond):
	}
}
