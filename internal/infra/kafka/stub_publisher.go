package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/srCredoftn/dao-dash/internal/core/domain"
	"github.com/srCredoftn/dao-dash/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Used whenever
// brokers are not configured, mirroring the mail collaborator's fallback.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a log-only event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType, userID string, at time.Time) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("stub event published",
		zap.String("event_type", eventType),
		zap.String("user_id", userID),
		zap.Time("timestamp", at.UTC()),
	)
}

// PublishUserCreated logs user.created events.
func (p *StubPublisher) PublishUserCreated(_ context.Context, event domain.UserCreatedEvent) error {
	p.logEvent(topicUserCreated, event.UserID, event.CreatedAt)
	return nil
}

// PublishUserDeactivated logs user.deactivated events.
func (p *StubPublisher) PublishUserDeactivated(_ context.Context, event domain.UserDeactivatedEvent) error {
	p.logEvent(topicUserDeactivated, event.UserID, event.DeactivatedAt)
	return nil
}

// PublishPasswordChanged logs user.password.changed events.
func (p *StubPublisher) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	p.logEvent(topicPasswordChanged, event.UserID, event.ChangedAt)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
