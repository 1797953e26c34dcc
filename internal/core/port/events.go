package port

import (
	"context"

	"github.com/srCredoftn/dao-dash/internal/core/domain"
)

// EventPublisher fans auth lifecycle events out to downstream consumers.
// Publishing is best effort: failures are logged by callers, never surfaced
// to the originating request.
type EventPublisher interface {
	PublishUserCreated(ctx context.Context, event domain.UserCreatedEvent) error
	PublishUserDeactivated(ctx context.Context, event domain.UserDeactivatedEvent) error
	PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error
}
