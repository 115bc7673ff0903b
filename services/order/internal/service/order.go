package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/kitchencart/ecommerce/pkg/errors"
	"github.com/kitchencart/ecommerce/services/order/internal/domain"
	"github.com/kitchencart/ecommerce/services/order/internal/gateway"
	"github.com/kitchencart/ecommerce/services/order/internal/invoice"
	"github.com/kitchencart/ecommerce/services/order/internal/notify"
	"github.com/kitchencart/ecommerce/services/order/internal/repository"
	"github.com/kitchencart/ecommerce/services/order/internal/stock"
)

// EventPublisher publishes order domain events.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, order *domain.Order) error
	PublishOrderPaid(ctx context.Context, order *domain.Order) error
	PublishOrderStatusChanged(ctx context.Context, order *domain.Order, oldStatus domain.OrderStatus) error
	PublishOrderCanceled(ctx context.Context, orderID, canceledBy string, stockRestored bool) error
}

// InvoiceGenerator renders and stores invoices.
type InvoiceGenerator interface {
	Ensure(ctx context.Context, order *domain.Order) (*invoice.File, error)
	Regenerate(ctx context.Context, order *domain.Order) (*invoice.File, error)
}

// Dispatcher sends notifications in the background.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg notify.Message)
}

// OrderDeps groups the collaborators of OrderService.
type OrderDeps struct {
	Orders   repository.OrderRepository
	Products repository.ProductRepository
	Users    repository.UserRepository
	Carts    repository.CartRepository
	Tx       repository.Transactor
	Ledger   *stock.Ledger
	Gateway  gateway.Gateway
	Invoices InvoiceGenerator
	Notifier Dispatcher
	Events   EventPublisher
	Logger   *slog.Logger
	Now      func() time.Time
}

// OrderService owns every decision that spans orders, payments, stock and
// carts. Per-order consistency comes from conditional updates: side effects
// run only for the caller whose update was applied. Stock changes commit in
// the same transaction as the order change that causes them.
type OrderService struct {
	orders   repository.OrderRepository
	products repository.ProductRepository
	users    repository.UserRepository
	carts    repository.CartRepository
	tx       repository.Transactor
	ledger   *stock.Ledger
	gateway  gateway.Gateway
	invoices InvoiceGenerator
	notifier Dispatcher
	events   EventPublisher
	logger   *slog.Logger
	now      func() time.Time
}

// NewOrderService creates a new order service.
func NewOrderService(deps OrderDeps) *OrderService {
	now := deps.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &OrderService{
		orders:   deps.Orders,
		products: deps.Products,
		users:    deps.Users,
		carts:    deps.Carts,
		tx:       deps.Tx,
		ledger:   deps.Ledger,
		gateway:  deps.Gateway,
		invoices: deps.Invoices,
		notifier: deps.Notifier,
		events:   deps.Events,
		logger:   deps.Logger,
		now:      now,
	}
}

// CreateOrderResult is returned when an order is placed or a payment is
// retried. Intent and KeyID are set for online payments.
type CreateOrderResult struct {
	Order  *domain.Order          `json:"order"`
	Intent *gateway.PaymentIntent `json:"razorpay_order,omitempty"`
	KeyID  string                 `json:"key_id,omitempty"`
}

// VerifyPaymentInput is the payload returned by the checkout flow.
type VerifyPaymentInput struct {
	OrderID          string
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
}

var errEmptyCart = apperrors.Validation("No items in cart", nil)

// CreateOrder turns the actor's cart into an order. COD orders take stock
// and clear the cart immediately; online orders defer both to VerifyPayment.
func (s *OrderService) CreateOrder(ctx context.Context, actor domain.Actor, method domain.PaymentMethod) (*CreateOrderResult, error) {
	user, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("load user profile: %w", err)
	}
	if err := user.Address.Validate(); err != nil {
		return nil, err
	}

	cart, err := s.carts.Get(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, errEmptyCart
		}
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if cart.IsEmpty() {
		return nil, errEmptyCart
	}

	items, err := s.snapshotItems(ctx, cart)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, apperrors.Validation("No valid items in cart", nil)
	}

	now := s.now()
	order := &domain.Order{
		ID:              uuid.NewString(),
		UserID:          actor.UserID,
		Items:           items,
		ShippingAddress: user.Address.Normalize(),
		TotalAmount:     domain.SumItems(items),
		Currency:        domain.DefaultCurrency,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	result := &CreateOrderResult{Order: order}

	switch method {
	case domain.MethodOnline:
		intent, err := s.createIntent(ctx, order.TotalAmount, now)
		if err != nil {
			return nil, err
		}
		order.Status = domain.StatusPending
		order.Payment = domain.PaymentResult{
			Method:         domain.MethodOnline,
			GatewayOrderID: intent.ID,
			Status:         domain.PaymentPending,
		}
		result.Intent = intent
		result.KeyID = s.gateway.KeyID()
	default:
		method = domain.MethodCOD
		order.Status = domain.StatusProcessing
		order.Payment = domain.PaymentResult{Method: domain.MethodCOD, Status: domain.PaymentCOD}
	}

	if method == domain.MethodCOD {
		err = s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.TxRepos) error {
			if err := repos.Orders.Create(ctx, order); err != nil {
				return err
			}
			return s.ledger.Apply(ctx, repos.Products, order.Items, stock.Decrement)
		})
	} else {
		err = s.orders.Create(ctx, order)
	}
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	if method == domain.MethodCOD {
		s.clearCart(ctx, order.UserID)
	}

	ordersCreated.WithLabelValues(string(method)).Inc()
	s.publish(ctx, "order.created", order.ID, func() error {
		return s.events.PublishOrderCreated(ctx, order)
	})

	s.logger.InfoContext(ctx, "order created",
		slog.String("order_id", order.ID),
		slog.String("user_id", order.UserID),
		slog.String("payment_method", string(method)),
		slog.Int64("total_amount", order.TotalAmount),
	)
	return result, nil
}

// snapshotItems copies name and selling price from the catalog. Items whose
// product no longer exists are dropped.
func (s *OrderService) snapshotItems(ctx context.Context, cart *domain.Cart) ([]domain.OrderItem, error) {
	ids := make([]string, 0, len(cart.Items))
	for _, it := range cart.Items {
		ids = append(ids, it.ProductID)
	}
	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve cart products: %w", err)
	}

	items := make([]domain.OrderItem, 0, len(cart.Items))
	for _, it := range cart.Items {
		p, ok := products[it.ProductID]
		if !ok || it.Quantity <= 0 {
			s.logger.DebugContext(ctx, "dropping unavailable cart item", slog.String("product_id", it.ProductID))
			continue
		}
		items = append(items, domain.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.SellingPrice,
			Quantity:  it.Quantity,
		})
	}
	return items, nil
}

func (s *OrderService) createIntent(ctx context.Context, amount int64, now time.Time) (*gateway.PaymentIntent, error) {
	if !s.gateway.Configured() {
		return nil, apperrors.Configuration("Payment gateway is not configured")
	}
	if amount < gateway.MinimumAmount {
		return nil, apperrors.Validation("Order amount is below the minimum payable amount", nil)
	}
	intent, err := s.gateway.CreateIntent(ctx, gateway.IntentInput{
		Amount:   amount,
		Currency: domain.DefaultCurrency,
		Receipt:  fmt.Sprintf("receipt_order_%d", now.UnixMilli()),
	})
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	return intent, nil
}

// VerifyPayment records a verified online payment. Repeating a successful
// verification returns the paid order without further side effects.
func (s *OrderService) VerifyPayment(ctx context.Context, actor domain.Actor, in VerifyPaymentInput) (*domain.Order, error) {
	if !s.gateway.VerifySignature(in.GatewayOrderID, in.GatewayPaymentID, in.Signature) {
		paymentVerifications.WithLabelValues(outcomeSignatureMismatch).Inc()
		s.logger.WarnContext(ctx, "payment signature mismatch",
			slog.String("order_id", in.OrderID),
			slog.String("gateway_order_id", in.GatewayOrderID),
		)
		return nil, apperrors.SignatureMismatch("Invalid signature")
	}

	order, err := s.orders.GetByIDForUser(ctx, in.OrderID, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	if order.Payment.GatewayOrderID != in.GatewayOrderID {
		paymentVerifications.WithLabelValues(outcomeRefMismatch).Inc()
		return nil, apperrors.Validation("Payment does not belong to this order", nil)
	}
	if order.Payment.IsPaid() {
		paymentVerifications.WithLabelValues(outcomeDuplicate).Inc()
		return order, nil
	}
	if order.Status == domain.StatusCancelled {
		return nil, apperrors.Validation("Order has been cancelled", nil)
	}
	if order.Payment.Status != domain.PaymentPending {
		return nil, apperrors.Validation("Order is not awaiting online payment", nil)
	}

	now := s.now()
	paid := domain.PaymentResult{
		Method:           domain.MethodOnline,
		GatewayOrderID:   in.GatewayOrderID,
		GatewayPaymentID: in.GatewayPaymentID,
		GatewaySignature: in.Signature,
		Status:           domain.PaymentPaid,
	}
	won, err := s.transitionPayment(ctx, order, repository.PaymentTransition{
		FromStatus:  order.Status,
		FromPayment: domain.PaymentPending,
		ToStatus:    domain.StatusProcessing,
		Payment:     paid,
	}, now, stock.Decrement)
	if err != nil {
		return nil, fmt.Errorf("record payment: %w", err)
	}
	if !won {
		current, err := s.orders.GetByIDForUser(ctx, order.ID, actor.UserID)
		if err != nil {
			return nil, fmt.Errorf("reload order: %w", err)
		}
		if current.Payment.IsPaid() {
			paymentVerifications.WithLabelValues(outcomeDuplicate).Inc()
			return current, nil
		}
		return nil, apperrors.Conflict("Order changed while verifying payment, please retry")
	}

	prev := order.Status
	order.Status = domain.StatusProcessing
	order.Payment = paid
	order.UpdatedAt = now
	paymentVerifications.WithLabelValues(outcomeVerified).Inc()
	orderTransitions.WithLabelValues(string(prev), string(order.Status)).Inc()

	s.clearCart(ctx, order.UserID)
	s.sendConfirmation(ctx, actor, order)
	s.publish(ctx, "order.paid", order.ID, func() error {
		return s.events.PublishOrderPaid(ctx, order)
	})

	s.logger.InfoContext(ctx, "payment verified",
		slog.String("order_id", order.ID),
		slog.String("gateway_payment_id", in.GatewayPaymentID),
	)
	return order, nil
}

// sendConfirmation regenerates the invoice and queues the confirmation
// email. Failures are logged only.
func (s *OrderService) sendConfirmation(ctx context.Context, actor domain.Actor, order *domain.Order) {
	var attachment *notify.Attachment
	file, err := s.invoices.Regenerate(ctx, order)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to regenerate invoice",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	} else {
		attachment = &notify.Attachment{Name: file.Name, Path: file.Path}
	}

	to := actor.Email
	if to == "" {
		user, err := s.users.GetByID(ctx, order.UserID)
		if err != nil {
			s.logger.ErrorContext(ctx, "no email for order confirmation",
				slog.String("order_id", order.ID),
				slog.String("error", err.Error()),
			)
			return
		}
		to = user.Email
	}

	s.notifier.Dispatch(ctx, notify.OrderConfirmation(to, order.ID, attachment))
}

// RetryPayment creates a fresh payment intent for an unpaid online order and
// replaces the stored gateway reference.
func (s *OrderService) RetryPayment(ctx context.Context, actor domain.Actor, orderID string) (*CreateOrderResult, error) {
	order, err := s.orders.GetByIDForUser(ctx, orderID, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	if !strings.EqualFold(string(order.Status), string(domain.StatusPending)) || order.Payment.Status != domain.PaymentPending {
		return nil, apperrors.Validation("Order is not pending payment", nil)
	}

	now := s.now()
	intent, err := s.createIntent(ctx, order.TotalAmount, now)
	if err != nil {
		return nil, err
	}

	retried := order.Payment
	retried.Method = domain.MethodOnline
	retried.GatewayOrderID = intent.ID

	won, err := s.orders.TransitionPayment(ctx, order.ID, repository.PaymentTransition{
		FromStatus:  order.Status,
		FromPayment: domain.PaymentPending,
		ToStatus:    order.Status,
		Payment:     retried,
	}, now)
	if err != nil {
		return nil, fmt.Errorf("store payment intent: %w", err)
	}
	if !won {
		return nil, apperrors.Conflict("Order changed while creating a new payment, please retry")
	}

	order.Payment = retried
	order.UpdatedAt = now

	s.logger.InfoContext(ctx, "payment intent recreated",
		slog.String("order_id", order.ID),
		slog.String("gateway_order_id", intent.ID),
	)
	return &CreateOrderResult{Order: order, Intent: intent, KeyID: s.gateway.KeyID()}, nil
}

// GetOrderInvoice returns the stored invoice, generating it on first use.
// Only the owner or an admin may read it, and only once the order is paid
// or placed as COD and while it is not cancelled.
func (s *OrderService) GetOrderInvoice(ctx context.Context, actor domain.Actor, orderID string) (*invoice.File, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	if !actor.CanView(order) {
		return nil, apperrors.Forbidden("Not authorized to view this invoice")
	}
	if order.Status == domain.StatusCancelled {
		return nil, apperrors.Validation("Cancelled orders have no invoice", nil)
	}
	if !order.Payment.StockApplied() {
		return nil, apperrors.Validation("Invoice is available once the order is paid", nil)
	}
	file, err := s.invoices.Ensure(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("generate invoice: %w", err)
	}
	return file, nil
}

// ListMyOrders lists the actor's orders, newest first.
func (s *OrderService) ListMyOrders(ctx context.Context, actor domain.Actor, page, perPage int) ([]domain.Order, int, error) {
	userID := actor.UserID
	return s.ListOrders(ctx, repository.OrderFilter{UserID: &userID, Page: page, PerPage: perPage})
}

// ListOrders lists orders matching filter, newest first.
func (s *OrderService) ListOrders(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PerPage < 1 || filter.PerPage > 100 {
		filter.PerPage = 20
	}
	orders, total, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	return orders, total, nil
}

// CancelMyOrder cancels one of the actor's own orders while it is Pending
// or Processing. Cancelling a cancelled order succeeds without effect.
func (s *OrderService) CancelMyOrder(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error) {
	order, err := s.orders.GetByIDForUser(ctx, orderID, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	if order.Status == domain.StatusCancelled {
		return order, nil
	}
	if !order.Status.Cancellable() {
		return nil, apperrors.Validation(fmt.Sprintf("Order cannot be cancelled once %s", order.Status), nil)
	}
	return s.cancel(ctx, order, actor.UserID)
}

// cancel moves order to Cancelled and returns its stock if stock was taken.
func (s *OrderService) cancel(ctx context.Context, order *domain.Order, by string) (*domain.Order, error) {
	restore := order.Payment.StockApplied()
	var dir stock.Direction
	if restore {
		dir = stock.Increment
	}

	now := s.now()
	won, err := s.transitionPayment(ctx, order, repository.PaymentTransition{
		FromStatus:  order.Status,
		FromPayment: order.Payment.Status,
		ToStatus:    domain.StatusCancelled,
		Payment:     order.Payment,
	}, now, dir)
	if err != nil {
		return nil, fmt.Errorf("cancel order: %w", err)
	}
	if !won {
		return s.settleLostRace(ctx, order.ID, domain.StatusCancelled)
	}

	prev := order.Status
	order.Status = domain.StatusCancelled
	order.UpdatedAt = now
	orderTransitions.WithLabelValues(string(prev), string(order.Status)).Inc()

	s.publish(ctx, "order.canceled", order.ID, func() error {
		return s.events.PublishOrderCanceled(ctx, order.ID, by, restore)
	})

	s.logger.InfoContext(ctx, "order cancelled",
		slog.String("order_id", order.ID),
		slog.String("previous_status", string(prev)),
		slog.Bool("stock_restored", restore),
	)
	return order, nil
}

// UpdateOrderStatus applies an administrative status change. Pending to
// Processing on an order whose stock was never taken marks it as paid and
// takes the stock. Cancelled orders cannot be changed.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, actor domain.Actor, orderID string, to domain.OrderStatus) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}

	if order.Status == domain.StatusCancelled {
		if to == domain.StatusCancelled {
			return order, nil
		}
		return nil, apperrors.Validation("Cancelled orders cannot change status", nil)
	}
	if order.Status == to {
		return order, nil
	}
	if to == domain.StatusCancelled {
		return s.cancel(ctx, order, actor.UserID)
	}

	prev := order.Status
	now := s.now()
	markPaid := prev == domain.StatusPending && to == domain.StatusProcessing && !order.Payment.StockApplied()

	var won bool
	if markPaid {
		marked := order.Payment
		marked.Status = domain.PaymentMarkedPaid
		won, err = s.transitionPayment(ctx, order, repository.PaymentTransition{
			FromStatus:  prev,
			FromPayment: order.Payment.Status,
			ToStatus:    to,
			Payment:     marked,
		}, now, stock.Decrement)
		if err == nil && won {
			order.Payment = marked
		}
	} else {
		won, err = s.orders.TransitionStatus(ctx, order.ID, prev, to, now)
	}
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	if !won {
		return s.settleLostRace(ctx, order.ID, to)
	}

	order.Status = to
	order.UpdatedAt = now
	orderTransitions.WithLabelValues(string(prev), string(to)).Inc()

	s.publish(ctx, "order.status_changed", order.ID, func() error {
		return s.events.PublishOrderStatusChanged(ctx, order, prev)
	})

	s.logger.InfoContext(ctx, "order status updated",
		slog.String("order_id", order.ID),
		slog.String("from", string(prev)),
		slog.String("to", string(to)),
		slog.Bool("marked_paid", markPaid),
	)
	return order, nil
}

// settleLostRace handles a conditional update that matched no row. If a
// concurrent caller already reached want, its result is returned as
// success.
func (s *OrderService) settleLostRace(ctx context.Context, orderID string, want domain.OrderStatus) (*domain.Order, error) {
	current, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("reload order: %w", err)
	}
	if current.Status == want {
		return current, nil
	}
	return nil, apperrors.Conflict("Order was modified concurrently, please retry")
}

// transitionPayment applies t to order. With a direction set, the order's
// stock is adjusted in the same transaction, and a stock error rolls the
// payment change back. It reports whether t was applied.
func (s *OrderService) transitionPayment(ctx context.Context, order *domain.Order, t repository.PaymentTransition, at time.Time, dir stock.Direction) (bool, error) {
	if dir == "" {
		return s.orders.TransitionPayment(ctx, order.ID, t, at)
	}

	var won bool
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.TxRepos) error {
		var err error
		won, err = repos.Orders.TransitionPayment(ctx, order.ID, t, at)
		if err != nil || !won {
			return err
		}
		return s.ledger.Apply(ctx, repos.Products, order.Items, dir)
	})
	if err != nil {
		return false, err
	}
	return won, nil
}

func (s *OrderService) clearCart(ctx context.Context, userID string) {
	if err := s.carts.Delete(ctx, userID); err != nil {
		s.logger.ErrorContext(ctx, "failed to clear cart",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}

// publish sends a domain event. Publishing never fails the operation.
func (s *OrderService) publish(ctx context.Context, name, orderID string, fn func() error) {
	if err := fn(); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish "+name+" event",
			slog.String("order_id", orderID),
			slog.String("error", err.Error()),
		)
	}
}
