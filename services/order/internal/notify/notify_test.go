package notify

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kitchencart/ecommerce/pkg/logger"
)

type recordingSink struct {
	mu   sync.Mutex
	msgs []Message
	errs []error
	err  error
}

func (s *recordingSink) Send(ctx context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
	s.errs = append(s.errs, ctx.Err())
	return s.err
}

func TestNotifier_DispatchSurvivesCancelledRequest(t *testing.T) {
	sink := &recordingSink{}
	n := NewNotifier(sink, time.Second, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n.Dispatch(ctx, OrderConfirmation("asha@example.com", "order-1", &Attachment{Name: "invoice_order-1.pdf", Path: "/tmp/invoice_order-1.pdf"}))
	n.Wait()

	require.Len(t, sink.msgs, 1)
	assert.NoError(t, sink.errs[0])
	assert.Equal(t, "Order Confirmation - Kitchen Cart", sink.msgs[0].Subject)
	assert.Equal(t, "Thank you for your order! Your order ID is order-1. Please find the invoice attached.", sink.msgs[0].Body)
	assert.Equal(t, "invoice_order-1.pdf", sink.msgs[0].Attachment.Name)
}

func TestNotifier_FailureIsLoggedOnly(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	sink := &recordingSink{err: errors.New("smtp down")}
	n := NewNotifier(sink, time.Second, log)

	n.Dispatch(context.Background(), Message{To: "a@b.c", OrderID: "order-2"})
	n.Wait()

	assert.Contains(t, buf.String(), "failed to dispatch notification")
	assert.Contains(t, buf.String(), "smtp down")
}

func TestNotifier_SinkPanicIsContained(t *testing.T) {
	n := NewNotifier(SinkFunc(func(context.Context, Message) error { panic("boom") }), time.Second, logger.Discard())

	n.Dispatch(context.Background(), Message{OrderID: "order-3"})
	n.Wait()
}

func TestNotifier_TimeoutApplied(t *testing.T) {
	var deadline time.Time
	n := NewNotifier(SinkFunc(func(ctx context.Context, _ Message) error {
		deadline, _ = ctx.Deadline()
		return nil
	}), 0, logger.Discard())

	start := time.Now()
	n.Dispatch(context.Background(), Message{})
	n.Wait()

	assert.WithinDuration(t, start.Add(defaultTimeout), deadline, time.Second)
}
