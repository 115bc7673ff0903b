// Package notify hands customer notifications to an out-of-band sink
// without blocking the request that triggered them.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var notificationsDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "notifications_dispatched_total",
	Help: "Notifications handed to the sink, by result.",
}, []string{"result"})

// Attachment references a file the sender should attach.
type Attachment struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Message is an email-style notification.
type Message struct {
	To         string      `json:"to"`
	Subject    string      `json:"subject"`
	Body       string      `json:"body"`
	OrderID    string      `json:"order_id,omitempty"`
	Attachment *Attachment `json:"attachment,omitempty"`
}

// Sink delivers a message. Delivery is best effort.
type Sink interface {
	Send(ctx context.Context, msg Message) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, msg Message) error

// Send calls f.
func (f SinkFunc) Send(ctx context.Context, msg Message) error { return f(ctx, msg) }

const defaultTimeout = 10 * time.Second

// Notifier dispatches messages asynchronously.
type Notifier struct {
	sink    Sink
	logger  *slog.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewNotifier creates a Notifier. A non-positive timeout uses 10s.
func NewNotifier(sink Sink, timeout time.Duration, logger *slog.Logger) *Notifier {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Notifier{sink: sink, logger: logger, timeout: timeout}
}

// Dispatch sends msg in the background. The send outlives ctx's
// cancellation but keeps its values, and failures are only logged.
func (n *Notifier) Dispatch(ctx context.Context, msg Message) {
	detached := context.WithoutCancel(ctx)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				notificationsDispatched.WithLabelValues("panic").Inc()
				n.logger.ErrorContext(detached, "notification sink panicked",
					slog.String("order_id", msg.OrderID),
					slog.String("panic", fmt.Sprint(r)),
				)
			}
		}()

		sendCtx, cancel := context.WithTimeout(detached, n.timeout)
		defer cancel()

		if err := n.sink.Send(sendCtx, msg); err != nil {
			notificationsDispatched.WithLabelValues("error").Inc()
			n.logger.ErrorContext(sendCtx, "failed to dispatch notification",
				slog.String("order_id", msg.OrderID),
				slog.String("error", err.Error()),
			)
			return
		}
		notificationsDispatched.WithLabelValues("ok").Inc()
		n.logger.DebugContext(sendCtx, "notification dispatched", slog.String("order_id", msg.OrderID))
	}()
}

// Wait blocks until all dispatched messages have finished.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

// OrderConfirmation builds the message sent once an order is paid.
func OrderConfirmation(to, orderID string, invoice *Attachment) Message {
	return Message{
		To:         to,
		Subject:    "Order Confirmation - Kitchen Cart",
		Body:       fmt.Sprintf("Thank you for your order! Your order ID is %s. Please find the invoice attached.", orderID),
		OrderID:    orderID,
		Attachment: invoice,
	}
}
