package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
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
	defaultTempPasswordTTL    = 24 * time.Hour
	defaultTempPasswordLength = 12
)

// CreateUserInput carries the fields an administrator provides for a new account.
type CreateUserInput struct {
	Name  string
	Email string
	Role  string
}

// CreatedUser pairs the stored account with its one-time temporary password.
// The password exists in memory only at creation; afterwards only its hash
// survives.
type CreatedUser struct {
	User         domain.User
	TempPassword string
}

// UserService manages account provisioning and profile maintenance.
type UserService struct {
	users     port.UserRepository
	sessions  port.SessionStore
	mailer    port.Mailer
	events    port.EventPublisher
	validator *security.PasswordValidator
	log       *zap.Logger
	now       func() time.Time
	tempTTL   time.Duration
}

// NewUserService constructs a UserService. The session store may be nil in
// stateless deployments; mailer and events may be nil and are then skipped.
func NewUserService(
	users port.UserRepository,
	sessions port.SessionStore,
	mailer port.Mailer,
	events port.EventPublisher,
	validator *security.PasswordValidator,
	log *zap.Logger,
) (*UserService, error) {
	if users == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if validator == nil {
		validator = security.DefaultPasswordValidator()
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &UserService{
		users:     users,
		sessions:  sessions,
		mailer:    mailer,
		events:    events,
		validator: validator,
		log:       log,
		now:       time.Now,
		tempTTL:   defaultTempPasswordTTL,
	}, nil
}

// WithClock overrides the time source, used in tests.
func (s *UserService) WithClock(now func() time.Time) *UserService {
	if now != nil {
		s.now = now
	}
	return s
}

// WithTempPasswordTTL overrides the temporary credential window.
func (s *UserService) WithTempPasswordTTL(ttl time.Duration) *UserService {
	if ttl > 0 {
		s.tempTTL = ttl
	}
	return s
}

// Create provisions an account with a generated temporary password. The raw
// password is returned exactly once and mailed to the new user; the account
// must replace it within the temporary window or login stops working.
func (s *UserService) Create(ctx context.Context, actor domain.User, input CreateUserInput) (*CreatedUser, error) {
	if !actor.Role.Can(domain.CapManageUsers) {
		return nil, ErrPermissionDenied
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}

	email := domain.NormalizeEmail(input.Email)
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}

	role, err := domain.ParseRole(input.Role)
	if err != nil {
		return nil, ErrInvalidRole
	}

	tempPassword, err := security.GenerateTempPassword(defaultTempPasswordLength)
	if err != nil {
		return nil, fmt.Errorf("generate temporary password: %w", err)
	}

	hash, err := security.HashPassword(tempPassword)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	expires := now.Add(s.tempTTL)
	user := domain.User{
		ID:                    uuid.NewString(),
		Name:                  name,
		Email:                 email,
		Role:                  role,
		PasswordHash:          hash,
		IsActive:              true,
		CreatedAt:             now,
		IsTemporaryPassword:   true,
		TempPasswordExpiresAt: &expires,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info("user created",
		zap.String("user_id", user.ID),
		zap.String("email", logger.MaskEmail(email)),
		zap.String("role", string(role)),
		zap.String("created_by", actor.ID),
	)

	s.sendWelcomeMail(user, tempPassword)

	if s.events != nil {
		event := domain.UserCreatedEvent{
			EventID:   uuid.NewString(),
			UserID:    user.ID,
			Email:     email,
			Role:      role,
			CreatedBy: actor.ID,
			CreatedAt: now,
		}
		if err := s.events.PublishUserCreated(ctx, event); err != nil {
			s.log.Warn("publish user created event failed", zap.Error(err))
		}
	}

	return &CreatedUser{User: user.Sanitized(), TempPassword: tempPassword}, nil
}

// sendWelcomeMail delivers the temporary credential without blocking the
// request. Mail failures are logged, never surfaced: the admin already holds
// the password from the create response.
func (s *UserService) sendWelcomeMail(user domain.User, tempPassword string) {
	if s.mailer == nil {
		return
	}

	body := fmt.Sprintf(
		"<p>Bonjour %s,</p><p>Votre compte a été créé. Mot de passe temporaire : <strong>%s</strong></p><p>Il expire dans %d heures. Connectez-vous et choisissez un nouveau mot de passe.</p>",
		user.Name, tempPassword, int(s.tempTTL.Hours()),
	)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.mailer.Send(ctx, user.Email, "Votre compte DAO Dash", body); err != nil {
			s.log.Warn("welcome mail delivery failed",
				zap.String("user_id", user.ID),
				zap.Error(err),
			)
		}
	}()
}

// Get returns a single account for administrators.
func (s *UserService) Get(ctx context.Context, actor domain.User, userID string) (*domain.User, error) {
	if !actor.Role.Can(domain.CapManageUsers) {
		return nil, ErrPermissionDenied
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	sanitized := user.Sanitized()
	return &sanitized, nil
}

// List returns accounts matching the filter for administrators.
func (s *UserService) List(ctx context.Context, actor domain.User, filter port.UserFilter) ([]domain.User, error) {
	if !actor.Role.Can(domain.CapManageUsers) {
		return nil, ErrPermissionDenied
	}

	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	for i := range users {
		users[i] = users[i].Sanitized()
	}

	return users, nil
}

// UpdateRole changes an account's role.
func (s *UserService) UpdateRole(ctx context.Context, actor domain.User, userID, rawRole string) (*domain.User, error) {
	if !actor.Role.Can(domain.CapManageUsers) {
		return nil, ErrPermissionDenied
	}

	role, err := domain.ParseRole(rawRole)
	if err != nil {
		return nil, ErrInvalidRole
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	user.Role = role
	if err := s.users.Update(ctx, *user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.log.Info("user role updated",
		zap.String("user_id", user.ID),
		zap.String("role", string(role)),
		zap.String("updated_by", actor.ID),
	)

	sanitized := user.Sanitized()
	return &sanitized, nil
}

// Deactivate soft-deletes an account and revokes its sessions. The record
// stays so the email remains reserved and history keeps its author. Admins
// cannot deactivate themselves, which keeps at least one admin reachable.
func (s *UserService) Deactivate(ctx context.Context, actor domain.User, userID string) error {
	if !actor.Role.Can(domain.CapManageUsers) {
		return ErrPermissionDenied
	}

	if actor.ID == userID {
		return ErrSelfDeactivation
	}

	if err := s.users.SetActive(ctx, userID, false); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("deactivate user: %w", err)
	}

	revoked := 0
	if s.sessions != nil {
		count, err := s.sessions.RevokeAllForUser(ctx, userID)
		if err != nil {
			s.log.Warn("revoke sessions failed", zap.String("user_id", userID), zap.Error(err))
		} else {
			revoked = count
		}
	}

	s.log.Info("user deactivated",
		zap.String("user_id", userID),
		zap.String("deactivated_by", actor.ID),
		zap.Int("sessions_revoked", revoked),
	)

	if s.events != nil {
		event := domain.UserDeactivatedEvent{
			EventID:         uuid.NewString(),
			UserID:          userID,
			DeactivatedBy:   actor.ID,
			DeactivatedAt:   s.now().UTC(),
			SessionsRevoked: revoked,
		}
		if err := s.events.PublishUserDeactivated(ctx, event); err != nil {
			s.log.Warn("publish user deactivated event failed", zap.Error(err))
		}
	}

	return nil
}

// Reactivate restores a soft-deleted account.
func (s *UserService) Reactivate(ctx context.Context, actor domain.User, userID string) error {
	if !actor.Role.Can(domain.CapManageUsers) {
		return ErrPermissionDenied
	}

	if err := s.users.SetActive(ctx, userID, true); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("reactivate user: %w", err)
	}

	s.log.Info("user reactivated",
		zap.String("user_id", userID),
		zap.String("reactivated_by", actor.ID),
	)

	return nil
}

// ChangePassword replaces the caller's own credential. Changing the password
// clears the temporary flag so the account switches to a durable credential.
func (s *UserService) ChangePassword(ctx context.Context, userID, newPassword string) error {
	if err := s.validator.Validate(newPassword); err != nil {
		return err
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	update := port.PasswordUpdate{
		PasswordHash:        hash,
		IsTemporaryPassword: false,
		ChangedAt:           s.now().UTC(),
	}

	if err := s.users.UpdatePassword(ctx, userID, update); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("update password: %w", err)
	}

	s.log.Info("password changed", zap.String("user_id", userID))

	if s.events != nil {
		event := domain.PasswordChangedEvent{
			EventID:   uuid.NewString(),
			UserID:    userID,
			ChangedAt: update.ChangedAt,
			ChangedBy: userID,
			Source:    "change_password",
		}
		if err := s.events.PublishPasswordChanged(ctx, event); err != nil {
			s.log.Warn("publish password changed event failed", zap.Error(err))
		}
	}

	return nil
}

// UpdateProfile edits the caller's own name and email.
func (s *UserService) UpdateProfile(ctx context.Context, userID, name, email string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if trimmed := strings.TrimSpace(name); trimmed != "" {
		user.Name = trimmed
	}
	if normalized := domain.NormalizeEmail(email); normalized != "" {
		user.Email = normalized
	}

	if err := s.users.Update(ctx, *user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrEmailTaken
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}

	s.log.Info("profile updated", zap.String("user_id", userID))

	sanitized := user.Sanitized()
	return &sanitized, nil
}
