package domain

import (
	"strings"
	"time"
)

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	StatusPending    OrderStatus = "Pending"
	StatusProcessing OrderStatus = "Processing"
	StatusShipped    OrderStatus = "Shipped"
	StatusDelivered  OrderStatus = "Delivered"
	StatusCancelled  OrderStatus = "Cancelled"
)

var orderStatuses = []OrderStatus{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled}

// ParseOrderStatus matches s against the known statuses ignoring case.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	s = strings.TrimSpace(s)
	for _, st := range orderStatuses {
		if strings.EqualFold(string(st), s) {
			return st, true
		}
	}
	return "", false
}

// Cancellable reports whether an order in this status may still be
// cancelled by its owner.
func (s OrderStatus) Cancellable() bool {
	return s == StatusPending || s == StatusProcessing
}

// PaymentMethod is how the customer pays.
type PaymentMethod string

const (
	MethodCOD    PaymentMethod = "COD"
	MethodOnline PaymentMethod = "OnlinePayment"
)

// ParsePaymentMethod defaults an empty value to COD and accepts "Razorpay"
// and "online" as aliases for online payment.
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "cod":
		return MethodCOD, true
	case "onlinepayment", "online", "razorpay":
		return MethodOnline, true
	}
	return "", false
}

// PaymentStatus tracks money collection for an order.
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentPaid       PaymentStatus = "paid"
	PaymentMarkedPaid PaymentStatus = "Marked as Paid"
	PaymentCOD        PaymentStatus = "COD"
)

// StockApplied reports whether stock has been decremented for an order whose
// payment is in this status.
func (s PaymentStatus) StockApplied() bool {
	return s == PaymentCOD || s == PaymentPaid || s == PaymentMarkedPaid
}

// PaymentResult is replaced as a whole on every payment transition.
type PaymentResult struct {
	Method           PaymentMethod `json:"method"`
	GatewayOrderID   string        `json:"gateway_order_id,omitempty"`
	GatewayPaymentID string        `json:"gateway_payment_id,omitempty"`
	GatewaySignature string        `json:"gateway_signature,omitempty"`
	Status           PaymentStatus `json:"status"`
}

// StockApplied is a shorthand for Status.StockApplied.
func (p PaymentResult) StockApplied() bool { return p.Status.StockApplied() }

// IsPaid reports whether the gateway confirmed the payment.
func (p PaymentResult) IsPaid() bool { return p.Status == PaymentPaid }

// OrderItem is a line snapshotted from the catalog at order time.
type OrderItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
}

// LineTotal returns price times quantity in minor units.
func (i OrderItem) LineTotal() int64 {
	return i.Price * int64(i.Quantity)
}

// Order is an immutable purchase record. Only Status, Payment and UpdatedAt
// change after creation.
type Order struct {
	ID              string        `json:"id"`
	UserID          string        `json:"user_id"`
	Items           []OrderItem   `json:"items"`
	ShippingAddress Address       `json:"shipping_address"`
	TotalAmount     int64         `json:"total_amount"`
	Currency        string        `json:"currency"`
	Status          OrderStatus   `json:"status"`
	Payment         PaymentResult `json:"payment_result"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// DefaultCurrency is the only currency orders are taken in.
const DefaultCurrency = "INR"

// SumItems totals the line items in minor units.
func SumItems(items []OrderItem) int64 {
	var total int64
	for _, it := range items {
		total += it.LineTotal()
	}
	return total
}

// OwnedBy reports whether userID placed the order.
func (o *Order) OwnedBy(userID string) bool {
	return o.UserID == userID
}
