package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/srCredoftn/dao-dash/internal/core/domain"
	"github.com/srCredoftn/dao-dash/internal/core/port"
	"github.com/srCredoftn/dao-dash/internal/repository"
)

// UserRepository is a mutex-guarded in-memory implementation of
// port.UserRepository. It backs single-node deployments and tests.
type UserRepository struct {
	mu      sync.RWMutex
	byID    map[string]domain.User
	byEmail map[string]string
}

// NewUserRepository constructs an empty in-memory user store.
func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[string]domain.User),
		byEmail: make(map[string]string),
	}
}

// Create stores a user. Email uniqueness spans active and inactive records.
func (r *UserRepository) Create(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := domain.NormalizeEmail(user.Email)
	if _, exists := r.byEmail[email]; exists {
		return repository.ErrConflict
	}
	if _, exists := r.byID[user.ID]; exists {
		return repository.ErrConflict
	}

	user.Email = email
	r.byID[user.ID] = user
	r.byEmail[email] = user.ID

	return nil
}

// GetByID retrieves a user by identifier.
func (r *UserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}

	copied := user
	return &copied, nil
}

// GetByEmail retrieves a user by the lowercase email key.
func (r *UserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[domain.NormalizeEmail(email)]
	if !ok {
		return nil, repository.ErrNotFound
	}

	user := r.byID[id]
	copied := user
	return &copied, nil
}

// Update modifies profile fields and the role.
func (r *UserRepository) Update(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[user.ID]
	if !ok {
		return repository.ErrNotFound
	}

	email := domain.NormalizeEmail(user.Email)
	if email != current.Email {
		if _, taken := r.byEmail[email]; taken {
			return repository.ErrConflict
		}
		delete(r.byEmail, current.Email)
		r.byEmail[email] = user.ID
	}

	current.Name = user.Name
	current.Email = email
	current.Role = user.Role
	r.byID[user.ID] = current

	return nil
}

// UpdatePassword replaces the credential and clears any outstanding reset code.
func (r *UserRepository) UpdatePassword(_ context.Context, id string, update port.PasswordUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[id]
	if !ok {
		return repository.ErrNotFound
	}

	user.PasswordHash = update.PasswordHash
	user.IsTemporaryPassword = update.IsTemporaryPassword
	user.TempPasswordExpiresAt = update.TempPasswordExpiresAt
	user.ResetCodeHash = ""
	user.ResetCodeExpiresAt = nil
	r.byID[id] = user

	return nil
}

// RecordLogin stamps the last successful login time.
func (r *UserRepository) RecordLogin(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[id]
	if !ok {
		return repository.ErrNotFound
	}

	stamp := at
	user.LastLogin = &stamp
	r.byID[id] = user

	return nil
}

// SetActive toggles the soft-delete flag. The record is kept either way.
func (r *UserRepository) SetActive(_ context.Context, id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[id]
	if !ok {
		return repository.ErrNotFound
	}

	user.IsActive = active
	r.byID[id] = user

	return nil
}

// SetResetCode stores a new reset code hash, replacing any previous one.
func (r *UserRepository) SetResetCode(_ context.Context, id string, codeHash string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[id]
	if !ok {
		return repository.ErrNotFound
	}

	user.ResetCodeHash = codeHash
	user.ResetCodeExpiresAt = &expiresAt
	r.byID[id] = user

	return nil
}

// ConsumeResetCode applies the password update only when the stored code hash
// still matches and has not expired, holding the write lock throughout so the
// code can be spent exactly once.
func (r *UserRepository) ConsumeResetCode(_ context.Context, id string, codeHash string, update port.PasswordUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[id]
	if !ok {
		return repository.ErrNotFound
	}

	if user.ResetCodeHash == "" || user.ResetCodeHash != codeHash {
		return repository.ErrNotFound
	}
	if user.ResetCodeExpiresAt == nil || !user.ResetCodeExpiresAt.After(update.ChangedAt) {
		return repository.ErrNotFound
	}

	user.PasswordHash = update.PasswordHash
	user.IsTemporaryPassword = update.IsTemporaryPassword
	user.TempPasswordExpiresAt = update.TempPasswordExpiresAt
	user.ResetCodeHash = ""
	user.ResetCodeExpiresAt = nil
	r.byID[id] = user

	return nil
}

// List returns users matching the filter, newest first.
func (r *UserRepository) List(_ context.Context, filter port.UserFilter) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]domain.User, 0, len(r.byID))
	for _, user := range r.byID {
		if filter.IsActive != nil && user.IsActive != *filter.IsActive {
			continue
		}
		if filter.Role != "" && user.Role != filter.Role {
			continue
		}
		users = append(users, user)
	}

	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(users) {
			return []domain.User{}, nil
		}
		users = users[filter.Offset:]
	}

	if filter.Limit > 0 && filter.Limit < len(users) {
		users = users[:filter.Limit]
	}

	return users, nil
}

var _ port.UserRepository = (*UserRepository)(nil)
