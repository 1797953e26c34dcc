package domain

import (
	"strings"
	"time"
)

// User mirrors the persisted representation in the users table.
type User struct {
	ID           string
	Name         string
	Email        string
	Role         Role
	PasswordHash string
	IsActive     bool
	LastLogin    *time.Time
	CreatedAt    time.Time

	// Temporary credentials are issued when an admin creates the account or
	// forces a reset. They stop working at TempPasswordExpiresAt even when
	// the password itself is correct.
	IsTemporaryPassword   bool
	TempPasswordExpiresAt *time.Time

	// At most one outstanding reset code exists per user. Generating a new
	// code replaces these fields, invalidating the previous code.
	ResetCodeHash      string
	ResetCodeExpiresAt *time.Time
}

// NormalizeEmail lowercases and trims an email for use as the login key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// TempPasswordExpired reports whether a temporary credential has elapsed its window.
func (u User) TempPasswordExpired(at time.Time) bool {
	if !u.IsTemporaryPassword || u.TempPasswordExpiresAt == nil {
		return false
	}
	return !u.TempPasswordExpiresAt.After(at)
}

// HasLiveResetCode reports whether an unexpired reset code is outstanding.
func (u User) HasLiveResetCode(at time.Time) bool {
	if u.ResetCodeHash == "" || u.ResetCodeExpiresAt == nil {
		return false
	}
	return u.ResetCodeExpiresAt.After(at)
}

// Sanitized returns a copy safe to hand to transport layers.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	u.ResetCodeHash = ""
	return u
}
