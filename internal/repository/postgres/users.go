package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/srCredoftn/dao-dash/internal/core/domain"
	"github.com/srCredoftn/dao-dash/internal/core/port"
	"github.com/srCredoftn/dao-dash/internal/repository"
)

const pgUniqueViolation = "23505"

var userColumns = []string{
	"id",
	"name",
	"email",
	"role",
	"password_hash",
	"is_active",
	"last_login",
	"created_at",
	"is_temp_password",
	"temp_password_expires_at",
	"reset_code_hash",
	"reset_code_expires_at",
}

// UserRepository implements port.UserRepository using PostgreSQL.
type UserRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewUserRepository wires a PostgreSQL-backed user repository.
func NewUserRepository(exec pgExecutor) *UserRepository {
	return &UserRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new user row. The email column carries a unique index
// spanning active and inactive rows.
func (r *UserRepository) Create(ctx context.Context, user domain.User) error {
	stmt, args, err := r.builder.Insert("users").
		Columns(userColumns...).
		Values(
			user.ID,
			user.Name,
			domain.NormalizeEmail(user.Email),
			user.Role,
			user.PasswordHash,
			user.IsActive,
			user.LastLogin,
			user.CreatedAt,
			user.IsTemporaryPassword,
			user.TempPasswordExpiresAt,
			nullableString(user.ResetCodeHash),
			user.ResetCodeExpiresAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert user sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return repository.ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by identifier.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	stmt, args, err := r.builder.
		Select(userColumns...).
		From("users").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select user sql: %w", err)
	}

	return r.scanUser(r.exec.QueryRow(ctx, stmt, args...))
}

// GetByEmail retrieves a user by the lowercase email key.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	stmt, args, err := r.builder.
		Select(userColumns...).
		From("users").
		Where(squirrel.Eq{"email": domain.NormalizeEmail(email)}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select user by email sql: %w", err)
	}

	return r.scanUser(r.exec.QueryRow(ctx, stmt, args...))
}

func (r *UserRepository) scanUser(row pgx.Row) (*domain.User, error) {
	var (
		user         domain.User
		lastLogin    *time.Time
		tempExpires  *time.Time
		resetHash    sql.NullString
		resetExpires *time.Time
	)

	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Role,
		&user.PasswordHash,
		&user.IsActive,
		&lastLogin,
		&user.CreatedAt,
		&user.IsTemporaryPassword,
		&tempExpires,
		&resetHash,
		&resetExpires,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	user.LastLogin = lastLogin
	user.TempPasswordExpiresAt = tempExpires
	user.ResetCodeExpiresAt = resetExpires
	if resetHash.Valid {
		user.ResetCodeHash = resetHash.String
	}

	return &user, nil
}

// Update modifies profile fields and the role.
func (r *UserRepository) Update(ctx context.Context, user domain.User) error {
	stmt, args, err := r.builder.Update("users").
		Set("name", user.Name).
		Set("email", domain.NormalizeEmail(user.Email)).
		Set("role", user.Role).
		Where(squirrel.Eq{"id": user.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update user sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return repository.ErrConflict
		}
		return fmt.Errorf("update user: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// UpdatePassword replaces the credential and clears any outstanding reset code.
func (r *UserRepository) UpdatePassword(ctx context.Context, id string, update port.PasswordUpdate) error {
	stmt, args, err := r.builder.Update("users").
		Set("password_hash", update.PasswordHash).
		Set("is_temp_password", update.IsTemporaryPassword).
		Set("temp_password_expires_at", update.TempPasswordExpiresAt).
		Set("reset_code_hash", nil).
		Set("reset_code_expires_at", nil).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update password sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// RecordLogin stamps the last successful login time.
func (r *UserRepository) RecordLogin(ctx context.Context, id string, at time.Time) error {
	stmt, args, err := r.builder.Update("users").
		Set("last_login", at).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build record login sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("record login: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// SetActive toggles the soft-delete flag. The row is never removed.
func (r *UserRepository) SetActive(ctx context.Context, id string, active bool) error {
	stmt, args, err := r.builder.Update("users").
		Set("is_active", active).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set active sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("set active: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// SetResetCode stores a new reset code hash, replacing any previous one.
func (r *UserRepository) SetResetCode(ctx context.Context, id string, codeHash string, expiresAt time.Time) error {
	stmt, args, err := r.builder.Update("users").
		Set("reset_code_hash", codeHash).
		Set("reset_code_expires_at", expiresAt).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set reset code sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("set reset code: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// ConsumeResetCode applies the password update only when the stored code hash
// still matches and has not expired. The conditional update makes the
// check-and-clear a single atomic statement, so a code can be spent once.
func (r *UserRepository) ConsumeResetCode(ctx context.Context, id string, codeHash string, update port.PasswordUpdate) error {
	stmt, args, err := r.builder.Update("users").
		Set("password_hash", update.PasswordHash).
		Set("is_temp_password", update.IsTemporaryPassword).
		Set("temp_password_expires_at", update.TempPasswordExpiresAt).
		Set("reset_code_hash", nil).
		Set("reset_code_expires_at", nil).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"reset_code_hash": codeHash}).
		Where(squirrel.Gt{"reset_code_expires_at": update.ChangedAt}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build consume reset code sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("consume reset code: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// List returns users with optional filtering and pagination.
func (r *UserRepository) List(ctx context.Context, filter port.UserFilter) ([]domain.User, error) {
	query := r.builder.Select(userColumns...).
		From("users").
		OrderBy("created_at DESC")

	if filter.IsActive != nil {
		query = query.Where(squirrel.Eq{"is_active": *filter.IsActive})
	}

	if filter.Role != "" {
		query = query.Where(squirrel.Eq{"role": filter.Role})
	}

	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}

	if filter.Offset > 0 {
		query = query.Offset(uint64(filter.Offset))
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list users sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		var (
			user         domain.User
			lastLogin    *time.Time
			tempExpires  *time.Time
			resetHash    sql.NullString
			resetExpires *time.Time
		)

		if err := rows.Scan(
			&user.ID,
			&user.Name,
			&user.Email,
			&user.Role,
			&user.PasswordHash,
			&user.IsActive,
			&lastLogin,
			&user.CreatedAt,
			&user.IsTemporaryPassword,
			&tempExpires,
			&resetHash,
			&resetExpires,
		); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}

		user.LastLogin = lastLogin
		user.TempPasswordExpiresAt = tempExpires
		user.ResetCodeExpiresAt = resetExpires
		if resetHash.Valid {
			user.ResetCodeHash = resetHash.String
		}

		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

var _ port.UserRepository = (*UserRepository)(nil)
