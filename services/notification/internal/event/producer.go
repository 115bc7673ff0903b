package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/kitchencart/ecommerce/pkg/kafka"
	"github.com/kitchencart/ecommerce/pkg/logger"
	"github.com/kitchencart/ecommerce/services/notification/internal/domain"
)

// TopicEmailSent is published after an email was handed to the sender.
const TopicEmailSent = "ecommerce.notification.sent"

// Aggregate type constant.
const AggregateTypeNotification = "notification"

// Source identifier for events originating from the notification service.
const SourceNotificationService = "notification-service"

// EmailSentData is the payload for a notification.sent event.
type EmailSentData struct {
	RequestEventID string `json:"request_event_id"`
	OrderID        string `json:"order_id,omitempty"`
	To             string `json:"to"`
	Subject        string `json:"subject"`
	Sender         string `json:"sender"`
}

// Producer publishes notification domain events to Kafka.
type Producer struct {
	kafka  pkgkafka.Publisher
	logger *slog.Logger
}

// NewProducer creates a new event producer for the notification service.
func NewProducer(kafka pkgkafka.Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishEmailSent publishes a notification.sent event for the email
// requested by requestEventID.
func (p *Producer) PublishEmailSent(ctx context.Context, requestEventID string, email *domain.Email, sender string) error {
	data := EmailSentData{
		RequestEventID: requestEventID,
		OrderID:        email.OrderID,
		To:             email.To,
		Subject:        email.Subject,
		Sender:         sender,
	}

	aggregateID := email.OrderID
	if aggregateID == "" {
		aggregateID = requestEventID
	}
	event, err := pkgkafka.NewEvent(TopicEmailSent, aggregateID, AggregateTypeNotification, SourceNotificationService, data)
	if err != nil {
		return fmt.Errorf("create notification.sent event: %w", err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}

	if err := p.kafka.Publish(ctx, TopicEmailSent, event); err != nil {
		return fmt.Errorf("publish notification.sent event: %w", err)
	}

	p.logger.DebugContext(ctx, "published notification.sent event",
		slog.String("request_event_id", requestEventID),
		slog.String("event_id", event.EventID),
	)
	return nil
}
