package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/srCredoftn/dao-dash/internal/core/domain"
	"github.com/srCredoftn/dao-dash/internal/core/port"
)

const (
	topicUserCreated     = "user.created"
	topicUserDeactivated = "user.deactivated"
	topicPasswordChanged = "user.password.changed"
)

// EventPublisher publishes auth lifecycle events to Kafka topics.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
}

// NewEventPublisher wraps the producer with event serialization.
func NewEventPublisher(producer *Producer, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, logger: logger}
}

func (p *EventPublisher) publish(eventType, key string, payload any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}

	p.producer.Input() <- &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(encoded),
	}

	return nil
}

// PublishUserCreated emits a user.created event keyed by user id.
func (p *EventPublisher) PublishUserCreated(_ context.Context, event domain.UserCreatedEvent) error {
	return p.publish(topicUserCreated, event.UserID, event)
}

// PublishUserDeactivated emits a user.deactivated event keyed by user id.
func (p *EventPublisher) PublishUserDeactivated(_ context.Context, event domain.UserDeactivatedEvent) error {
	return p.publish(topicUserDeactivated, event.UserID, event)
}

// PublishPasswordChanged emits a user.password.changed event keyed by user id.
func (p *EventPublisher) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	return p.publish(topicPasswordChanged, event.UserID, event)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
