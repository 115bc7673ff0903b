package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/kitchencart/ecommerce/pkg/kafka"
	"github.com/kitchencart/ecommerce/pkg/logger"
	"github.com/kitchencart/ecommerce/services/order/internal/domain"
	"github.com/kitchencart/ecommerce/services/order/internal/notify"
)

// Kafka topic constants for order domain events.
const (
	TopicOrderCreated       = "ecommerce.order.created"
	TopicOrderPaid          = "ecommerce.order.paid"
	TopicOrderStatusChanged = "ecommerce.order.status_changed"
	TopicOrderCanceled      = "ecommerce.order.canceled"
	TopicEmailRequested     = "ecommerce.notification.email_requested"
)

// Aggregate type constant.
const AggregateTypeOrder = "order"

// Source identifier for events originating from the order service.
const SourceOrderService = "order-service"

// OrderCreatedData is the payload for an order.created event (full order snapshot).
type OrderCreatedData struct {
	ID              string             `json:"id"`
	UserID          string             `json:"user_id"`
	Status          string             `json:"status"`
	PaymentMethod   string             `json:"payment_method"`
	PaymentStatus   string             `json:"payment_status"`
	Items           []domain.OrderItem `json:"items"`
	TotalAmount     int64              `json:"total_amount"`
	Currency        string             `json:"currency"`
	ShippingAddress domain.Address     `json:"shipping_address"`
}

// OrderPaidData is the payload for an order.paid event.
type OrderPaidData struct {
	OrderID          string `json:"order_id"`
	UserID           string `json:"user_id"`
	GatewayOrderID   string `json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	TotalAmount      int64  `json:"total_amount"`
	Currency         string `json:"currency"`
}

// OrderStatusChangedData is the payload for an order.status_changed event.
type OrderStatusChangedData struct {
	OrderID       string `json:"order_id"`
	OldStatus     string `json:"old_status"`
	NewStatus     string `json:"new_status"`
	PaymentStatus string `json:"payment_status"`
}

// OrderCanceledData is the payload for an order.canceled event.
type OrderCanceledData struct {
	OrderID       string `json:"order_id"`
	CanceledBy    string `json:"canceled_by"`
	StockRestored bool   `json:"stock_restored"`
}

// Producer publishes order domain events to Kafka.
type Producer struct {
	kafka  pkgkafka.Publisher
	logger *slog.Logger
}

// NewProducer creates a new event producer for the order service.
func NewProducer(kafka pkgkafka.Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID string, data any) error {
	event, err := pkgkafka.NewEvent(topic, aggregateID, AggregateTypeOrder, SourceOrderService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
		slog.String("event_id", event.EventID),
	)
	return nil
}

// PublishOrderCreated publishes an order.created event with the full order snapshot.
func (p *Producer) PublishOrderCreated(ctx context.Context, order *domain.Order) error {
	return p.publish(ctx, TopicOrderCreated, order.ID, OrderCreatedData{
		ID:              order.ID,
		UserID:          order.UserID,
		Status:          string(order.Status),
		PaymentMethod:   string(order.Payment.Method),
		PaymentStatus:   string(order.Payment.Status),
		Items:           order.Items,
		TotalAmount:     order.TotalAmount,
		Currency:        order.Currency,
		ShippingAddress: order.ShippingAddress,
	})
}

// PublishOrderPaid publishes an order.paid event after a verified payment.
func (p *Producer) PublishOrderPaid(ctx context.Context, order *domain.Order) error {
	return p.publish(ctx, TopicOrderPaid, order.ID, OrderPaidData{
		OrderID:          order.ID,
		UserID:           order.UserID,
		GatewayOrderID:   order.Payment.GatewayOrderID,
		GatewayPaymentID: order.Payment.GatewayPaymentID,
		TotalAmount:      order.TotalAmount,
		Currency:         order.Currency,
	})
}

// PublishOrderStatusChanged publishes an order.status_changed event.
func (p *Producer) PublishOrderStatusChanged(ctx context.Context, order *domain.Order, oldStatus domain.OrderStatus) error {
	return p.publish(ctx, TopicOrderStatusChanged, order.ID, OrderStatusChangedData{
		OrderID:       order.ID,
		OldStatus:     string(oldStatus),
		NewStatus:     string(order.Status),
		PaymentStatus: string(order.Payment.Status),
	})
}

// PublishOrderCanceled publishes an order.canceled event.
func (p *Producer) PublishOrderCanceled(ctx context.Context, orderID, canceledBy string, stockRestored bool) error {
	return p.publish(ctx, TopicOrderCanceled, orderID, OrderCanceledData{
		OrderID:       orderID,
		CanceledBy:    canceledBy,
		StockRestored: stockRestored,
	})
}

// PublishEmailRequested asks the notification worker to send msg. It
// satisfies notify.SinkFunc.
func (p *Producer) PublishEmailRequested(ctx context.Context, msg notify.Message) error {
	return p.publish(ctx, TopicEmailRequested, msg.OrderID, msg)
}
