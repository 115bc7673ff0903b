package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	pkgkafka "github.com/kitchencart/ecommerce/pkg/kafka"
	"github.com/kitchencart/ecommerce/pkg/logger"
	"github.com/kitchencart/ecommerce/services/notification/internal/domain"
	"github.com/kitchencart/ecommerce/services/notification/internal/sender"
)

// TopicEmailRequested carries emails the order service wants delivered.
const TopicEmailRequested = "ecommerce.notification.email_requested"

// Consumer group ID for the notification service.
const ConsumerGroupID = "notification-service"

// SentPublisher reports delivered emails.
type SentPublisher interface {
	PublishEmailSent(ctx context.Context, requestEventID string, email *domain.Email, sender string) error
}

// ConsumerHandler delivers requested emails through a sender.
type ConsumerHandler struct {
	sender sender.Sender
	events SentPublisher
	logger *slog.Logger
}

// NewConsumerHandler creates a new event consumer handler.
func NewConsumerHandler(s sender.Sender, events SentPublisher, logger *slog.Logger) *ConsumerHandler {
	return &ConsumerHandler{
		sender: s,
		events: events,
		logger: logger,
	}
}

// Handle processes an incoming Kafka event based on its event type. A
// returned error makes the consumer retry and finally dead-letter the
// message.
func (h *ConsumerHandler) Handle(ctx context.Context, event *pkgkafka.Event) error {
	if event.CorrelationID != "" {
		ctx = logger.WithCorrelationID(ctx, event.CorrelationID)
	}

	switch event.EventType {
	case TopicEmailRequested:
		return h.handleEmailRequested(ctx, event)
	default:
		h.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}
}

func (h *ConsumerHandler) handleEmailRequested(ctx context.Context, event *pkgkafka.Event) error {
	var email domain.Email
	if err := event.UnmarshalData(&email); err != nil {
		return fmt.Errorf("decode email request %s: %w", event.EventID, err)
	}
	if err := email.Validate(); err != nil {
		return fmt.Errorf("email request %s: %w", event.EventID, err)
	}

	if err := h.sender.Send(ctx, &email); err != nil {
		return fmt.Errorf("send email request %s via %s: %w", event.EventID, h.sender.Name(), err)
	}

	h.logger.InfoContext(ctx, "email delivered",
		slog.String("event_id", event.EventID),
		slog.String("order_id", email.OrderID),
		slog.String("sender", h.sender.Name()),
	)

	// The email is out; a lost sent event must not cause a resend.
	if err := h.events.PublishEmailSent(ctx, event.EventID, &email, h.sender.Name()); err != nil {
		h.logger.WarnContext(ctx, "failed to publish notification.sent event",
			slog.String("event_id", event.EventID),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

// ConsumerOptions tunes retry and dead-lettering of the email consumer.
type ConsumerOptions struct {
	MaxRetries   int
	RetryBackoff time.Duration
	EnableDLQ    bool
}

// NewConsumer creates the email_requested consumer. Events already recorded
// in store are skipped, so redelivered requests do not send twice.
func NewConsumer(
	brokers []string,
	opts ConsumerOptions,
	handler *ConsumerHandler,
	store pkgkafka.IdempotencyStore,
	dlq pkgkafka.DeadLetterer,
	logger *slog.Logger,
) *pkgkafka.Consumer {
	cfg := pkgkafka.ConsumerConfig{
		Brokers:      brokers,
		GroupID:      ConsumerGroupID,
		Topic:        TopicEmailRequested,
		MinBytes:     1,
		MaxBytes:     10e6,
		MaxRetries:   opts.MaxRetries,
		RetryBackoff: opts.RetryBackoff,
		EnableDLQ:    opts.EnableDLQ,
	}
	return pkgkafka.NewConsumer(cfg, pkgkafka.IdempotentHandler(store, handler.Handle, logger), dlq, logger)
}
