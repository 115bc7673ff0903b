package mock

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/kitchencart/ecommerce/services/notification/internal/domain"
)

// MockSender logs emails instead of delivering them and keeps the ones it
// accepted. It stands in for an SMTP or API provider.
type MockSender struct {
	logger *slog.Logger

	mu   sync.Mutex
	sent []domain.Email
}

// NewMockSender creates a new mock sender.
func NewMockSender(logger *slog.Logger) *MockSender {
	return &MockSender{logger: logger}
}

// Name returns the name of this sender.
func (s *MockSender) Name() string {
	return "mock-email"
}

// Send logs the email. An attachment that is not readable fails the send so
// the message is retried or dead-lettered rather than delivered without it.
func (s *MockSender) Send(ctx context.Context, email *domain.Email) error {
	attrs := []any{
		slog.String("to", email.To),
		slog.String("subject", email.Subject),
		slog.String("order_id", email.OrderID),
	}
	if a := email.Attachment; a != nil {
		info, err := os.Stat(a.Path)
		if err != nil {
			return fmt.Errorf("attachment %s: %w", a.Name, err)
		}
		attrs = append(attrs,
			slog.String("attachment", a.Name),
			slog.Int64("attachment_bytes", info.Size()),
		)
	}

	s.logger.InfoContext(ctx, "mock sender: email sent", attrs...)

	s.mu.Lock()
	s.sent = append(s.sent, *email)
	s.mu.Unlock()
	return nil
}

// Sent returns a copy of the emails accepted so far.
func (s *MockSender) Sent() []domain.Email {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Email(nil), s.sent...)
}
