package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/srCredoftn/dao-dash/internal/core/domain"
	"github.com/srCredoftn/dao-dash/internal/core/port"
	"github.com/srCredoftn/dao-dash/internal/infra/logger"
	"github.com/srCredoftn/dao-dash/internal/infra/security"
	"github.com/srCredoftn/dao-dash/internal/repository"
)

// LoginResult carries the session token and the authenticated identity.
type LoginResult struct {
	Token string
	User  domain.User

	// RequiresPasswordChange is set when the account still runs on a
	// provisioned temporary password.
	RequiresPasswordChange bool
}

// AuthService coordinates login, logout, and session resolution. It runs in
// one of two modes: stateless signed tokens, or opaque tokens backed by a
// session directory when a SessionStore is supplied.
type AuthService struct {
	users      port.UserRepository
	issuer     *security.TokenIssuer
	sessions   port.SessionStore
	sessionTTL time.Duration
	log        *zap.Logger
	now        func() time.Time
}

// NewAuthService constructs an AuthService. A nil sessions store selects the
// stateless mode; in that case the issuer is required.
func NewAuthService(users port.UserRepository, issuer *security.TokenIssuer, sessions port.SessionStore, log *zap.Logger) (*AuthService, error) {
	if users == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if sessions == nil && issuer == nil {
		return nil, fmt.Errorf("either a token issuer or a session store is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	ttl := defaultSessionTTL
	if issuer != nil {
		ttl = issuer.TTL()
	}

	return &AuthService{
		users:      users,
		issuer:     issuer,
		sessions:   sessions,
		sessionTTL: ttl,
		log:        log,
		now:        time.Now,
	}, nil
}

// WithSessionTTL overrides the lifetime of opaque sessions opened in
// stateful mode.
func (s *AuthService) WithSessionTTL(ttl time.Duration) *AuthService {
	if ttl > 0 {
		s.sessionTTL = ttl
	}
	return s
}

// WithClock overrides the time source, used in tests.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	if now != nil {
		s.now = now
	}
	return s
}

// Login validates credentials and opens a session. Every failure path
// returns ErrInvalidCredentials so callers cannot distinguish an unknown
// email from a wrong password, a deactivated account, or an expired
// temporary password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if !user.IsActive {
		s.log.Info("login rejected for inactive account", zap.String("email", logger.MaskEmail(email)))
		return nil, ErrInvalidCredentials
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	now := s.now().UTC()
	if user.TempPasswordExpired(now) {
		s.log.Info("login rejected for expired temporary password", zap.String("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}

	token, err := s.openSession(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	if err := s.users.RecordLogin(ctx, user.ID, now); err != nil {
		// The login itself succeeded; a failed stamp is not fatal.
		s.log.Warn("record login failed", zap.String("user_id", user.ID), zap.Error(err))
	}

	stamp := now
	user.LastLogin = &stamp

	return &LoginResult{
		Token:                  token,
		User:                   user.Sanitized(),
		RequiresPasswordChange: user.IsTemporaryPassword,
	}, nil
}

func (s *AuthService) openSession(ctx context.Context, userID string) (string, error) {
	if s.sessions != nil {
		token, err := s.sessions.Create(ctx, userID, s.sessionTTL)
		if err != nil {
			return "", fmt.Errorf("create session: %w", err)
		}
		return token, nil
	}

	token, err := s.issuer.Issue(userID)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

const defaultSessionTTL = 7 * 24 * time.Hour

// Logout ends the session. In stateless mode tokens cannot be recalled, so
// logout is a client-side discard and always succeeds.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if s.sessions == nil {
		return nil
	}

	if err := s.sessions.Revoke(ctx, token); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}

	return nil
}

// CurrentUser resolves a session token to its active user. Tokens for
// unknown or deactivated users fail with ErrUnauthenticated.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (*domain.User, error) {
	userID, err := s.resolveToken(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if !user.IsActive {
		return nil, ErrUnauthenticated
	}

	sanitized := user.Sanitized()
	return &sanitized, nil
}

func (s *AuthService) resolveToken(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrUnauthenticated
	}

	if s.sessions != nil {
		userID, err := s.sessions.Lookup(ctx, token)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return "", ErrUnauthenticated
			}
			return "", fmt.Errorf("lookup session: %w", err)
		}
		return userID, nil
	}

	userID, err := s.issuer.Verify(token)
	if err != nil {
		return "", ErrUnauthenticated
	}
	return userID, nil
}
