package port

import (
	"context"
	"time"

	"github.com/srCredoftn/dao-dash/internal/core/domain"
)

// UserFilter narrows List results.
type UserFilter struct {
	IsActive *bool
	Role     domain.Role
	Limit    int
	Offset   int
}

// PasswordUpdate carries a full credential replacement for a user.
type PasswordUpdate struct {
	PasswordHash          string
	IsTemporaryPassword   bool
	TempPasswordExpiresAt *time.Time
	ChangedAt             time.Time
}

// UserRepository exposes persistence behavior for user records.
//
// Email lookups are keyed by the lowercase form; uniqueness spans active and
// inactive records alike. ConsumeResetCode must be atomic: the password swap
// and the code clear happen only when the stored code hash still matches and
// has not expired.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user domain.User) error
	UpdatePassword(ctx context.Context, id string, update PasswordUpdate) error
	RecordLogin(ctx context.Context, id string, at time.Time) error
	SetActive(ctx context.Context, id string, active bool) error
	SetResetCode(ctx context.Context, id string, codeHash string, expiresAt time.Time) error
	ConsumeResetCode(ctx context.Context, id string, codeHash string, update PasswordUpdate) error
	List(ctx context.Context, filter UserFilter) ([]domain.User, error)
}
