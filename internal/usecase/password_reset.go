package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/srCredoftn/dao-dash/internal/core/domain"
	"github.com/srCredoftn/dao-dash/internal/core/port"
	"github.com/srCredoftn/dao-dash/internal/infra/logger"
	"github.com/srCredoftn/dao-dash/internal/infra/security"
	"github.com/srCredoftn/dao-dash/internal/repository"
)

const (
	defaultResetCodeTTL    = 15 * time.Minute
	defaultResetCodeLength = 6
)

// PasswordResetService runs the forgot-password flow: a short-lived numeric
// code is mailed to the account and can be spent exactly once on a new
// password.
type PasswordResetService struct {
	users     port.UserRepository
	sessions  port.SessionStore
	mailer    port.Mailer
	events    port.EventPublisher
	validator *security.PasswordValidator
	log       *zap.Logger
	now       func() time.Time
	codeTTL   time.Duration
}

// NewPasswordResetService constructs a PasswordResetService. Sessions, mailer,
// and events may be nil and are then skipped.
func NewPasswordResetService(
	users port.UserRepository,
	sessions port.SessionStore,
	mailer port.Mailer,
	events port.EventPublisher,
	validator *security.PasswordValidator,
	log *zap.Logger,
) (*PasswordResetService, error) {
	if users == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if validator == nil {
		validator = security.DefaultPasswordValidator()
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &PasswordResetService{
		users:     users,
		sessions:  sessions,
		mailer:    mailer,
		events:    events,
		validator: validator,
		log:       log,
		now:       time.Now,
		codeTTL:   defaultResetCodeTTL,
	}, nil
}

// WithClock overrides the time source, used in tests.
func (s *PasswordResetService) WithClock(now func() time.Time) *PasswordResetService {
	if now != nil {
		s.now = now
	}
	return s
}

// WithCodeTTL overrides the reset code lifetime.
func (s *PasswordResetService) WithCodeTTL(ttl time.Duration) *PasswordResetService {
	if ttl > 0 {
		s.codeTTL = ttl
	}
	return s
}

// Forgot starts a reset for the address. The outcome is identical whether or
// not an account exists, so the endpoint cannot be used to enumerate emails.
// Generating a new code replaces any outstanding one.
func (s *PasswordResetService) Forgot(ctx context.Context, email string) error {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return nil
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.log.Error("reset lookup failed", zap.String("email", logger.MaskEmail(email)), zap.Error(err))
		}
		return nil
	}

	if !user.IsActive {
		return nil
	}

	code, err := security.GenerateNumericCode(defaultResetCodeLength)
	if err != nil {
		s.log.Error("reset code generation failed", zap.String("user_id", user.ID), zap.Error(err))
		return nil
	}

	expiresAt := s.now().UTC().Add(s.codeTTL)
	if err := s.users.SetResetCode(ctx, user.ID, security.HashToken(code), expiresAt); err != nil {
		s.log.Error("store reset code failed", zap.String("user_id", user.ID), zap.Error(err))
		return nil
	}

	s.log.Info("reset code issued",
		zap.String("user_id", user.ID),
		zap.Time("expires_at", expiresAt),
	)

	s.sendResetMail(*user, code)

	return nil
}

// sendResetMail delivers the code without blocking the request. Failures are
// logged only; the caller's response never reflects delivery state.
func (s *PasswordResetService) sendResetMail(user domain.User, code string) {
	if s.mailer == nil {
		return
	}

	body := fmt.Sprintf(
		"<p>Bonjour %s,</p><p>Votre code de réinitialisation : <strong>%s</strong></p><p>Il expire dans %d minutes. Si vous n'êtes pas à l'origine de cette demande, ignorez ce message.</p>",
		user.Name, code, int(s.codeTTL.Minutes()),
	)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.mailer.Send(ctx, user.Email, "Réinitialisation du mot de passe", body); err != nil {
			s.log.Warn("reset mail delivery failed",
				zap.String("user_id", user.ID),
				zap.Error(err),
			)
		}
	}()
}

// VerifyCode checks a code without consuming it, so a client can validate
// user input before asking for the new password. All failures collapse into
// ErrInvalidResetCode.
func (s *PasswordResetService) VerifyCode(ctx context.Context, email, code string) error {
	email = domain.NormalizeEmail(email)
	if email == "" || code == "" {
		return ErrInvalidResetCode
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidResetCode
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	if !user.HasLiveResetCode(s.now().UTC()) {
		return ErrInvalidResetCode
	}
	if user.ResetCodeHash != security.HashToken(code) {
		return ErrInvalidResetCode
	}

	return nil
}

// Reset spends the code on a new password. The consume is atomic at the
// store: a concurrent attempt with the same code fails, and the code is gone
// afterwards whether it was used, replaced, or expired.
func (s *PasswordResetService) Reset(ctx context.Context, email, code, newPassword string) error {
	email = domain.NormalizeEmail(email)
	if email == "" || code == "" {
		return ErrInvalidResetCode
	}

	if err := s.validator.Validate(newPassword); err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidResetCode
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	changedAt := s.now().UTC()
	update := port.PasswordUpdate{
		PasswordHash:        hash,
		IsTemporaryPassword: false,
		ChangedAt:           changedAt,
	}

	if err := s.users.ConsumeResetCode(ctx, user.ID, security.HashToken(code), update); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidResetCode
		}
		return fmt.Errorf("consume reset code: %w", err)
	}

	// Credentials changed out-of-band: every existing session is stale.
	if s.sessions != nil {
		if _, err := s.sessions.RevokeAllForUser(ctx, user.ID); err != nil {
			s.log.Warn("revoke sessions failed", zap.String("user_id", user.ID), zap.Error(err))
		}
	}

	s.log.Info("password reset completed", zap.String("user_id", user.ID))

	if s.events != nil {
		event := domain.PasswordChangedEvent{
			EventID:   uuid.NewString(),
			UserID:    user.ID,
			ChangedAt: changedAt,
			ChangedBy: user.ID,
			Source:    "reset_code",
		}
		if err := s.events.PublishPasswordChanged(ctx, event); err != nil {
			s.log.Warn("publish password changed event failed", zap.Error(err))
		}
	}

	return nil
}
