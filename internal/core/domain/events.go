package domain

import "time"

// UserCreatedEvent is published when an admin provisions an account.
type UserCreatedEvent struct {
	EventID   string         `json:"event_id"`
	UserID    string         `json:"user_id"`
	Email     string         `json:"email"`
	Role      Role           `json:"role"`
	CreatedBy string         `json:"created_by"`
	CreatedAt time.Time      `json:"created_at"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// UserDeactivatedEvent is published when an account is soft deleted.
type UserDeactivatedEvent struct {
	EventID         string    `json:"event_id"`
	UserID          string    `json:"user_id"`
	DeactivatedBy   string    `json:"deactivated_by"`
	DeactivatedAt   time.Time `json:"deactivated_at"`
	SessionsRevoked int       `json:"sessions_revoked"`
}

// PasswordChangedEvent is published after any successful credential replacement.
type PasswordChangedEvent struct {
	EventID   string         `json:"event_id"`
	UserID    string         `json:"user_id"`
	ChangedAt time.Time      `json:"changed_at"`
	ChangedBy string         `json:"changed_by"`
	Source    string         `json:"source"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}
