package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/kitchencart/ecommerce/pkg/errors"
	"github.com/kitchencart/ecommerce/pkg/httputil"
	"github.com/kitchencart/ecommerce/pkg/pagination"
	"github.com/kitchencart/ecommerce/pkg/validator"
	"github.com/kitchencart/ecommerce/services/order/internal/domain"
	"github.com/kitchencart/ecommerce/services/order/internal/invoice"
	"github.com/kitchencart/ecommerce/services/order/internal/repository"
	"github.com/kitchencart/ecommerce/services/order/internal/service"
)

// OrderService is the order lifecycle as seen by the HTTP layer.
type OrderService interface {
	CreateOrder(ctx context.Context, actor domain.Actor, method domain.PaymentMethod) (*service.CreateOrderResult, error)
	VerifyPayment(ctx context.Context, actor domain.Actor, in service.VerifyPaymentInput) (*domain.Order, error)
	RetryPayment(ctx context.Context, actor domain.Actor, orderID string) (*service.CreateOrderResult, error)
	GetOrderInvoice(ctx context.Context, actor domain.Actor, orderID string) (*invoice.File, error)
	ListMyOrders(ctx context.Context, actor domain.Actor, page, perPage int) ([]domain.Order, int, error)
	ListOrders(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error)
	CancelMyOrder(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, actor domain.Actor, orderID string, to domain.OrderStatus) (*domain.Order, error)
}

// OrderHandler handles HTTP requests for order endpoints.
type OrderHandler struct {
	service OrderService
	logger  *slog.Logger
}

// NewOrderHandler creates a new order HTTP handler.
func NewOrderHandler(svc OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// CreateOrderRequest is the JSON request body for placing an order from
// the caller's cart. An empty payment method means cash on delivery.
type CreateOrderRequest struct {
	PaymentMethod string `json:"payment_method"`
}

// VerifyPaymentRequest is the payload returned by the checkout widget.
type VerifyPaymentRequest struct {
	OrderID           string `json:"order_id" validate:"required,uuid"`
	RazorpayOrderID   string `json:"razorpay_order_id" validate:"required,notblank"`
	RazorpayPaymentID string `json:"razorpay_payment_id" validate:"required,notblank"`
	RazorpaySignature string `json:"razorpay_signature" validate:"required,notblank"`
}

// UpdateStatusRequest is the JSON request body for an admin status change.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,notblank"`
}

// --- Handlers ---

// CreateOrder handles POST /api/v1/orders
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteDecodeError(w, r, err)
		return
	}

	method, ok := domain.ParsePaymentMethod(req.PaymentMethod)
	if !ok {
		httputil.WriteError(w, r, apperrors.Validation("Invalid payment method",
			map[string]string{"payment_method": "must be COD or OnlinePayment"}), h.logger)
		return
	}

	res, err := h.service.CreateOrder(r.Context(), actorFrom(r), method)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if method == domain.MethodCOD {
		httputil.WriteSuccess(w, http.StatusCreated, "Order placed successfully (COD)", res)
		return
	}
	httputil.WriteSuccess(w, http.StatusCreated, "Razorpay order created", res)
}

// VerifyPayment handles POST /api/v1/orders/verify
func (h *OrderHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req VerifyPaymentRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteDecodeError(w, r, err)
		return
	}

	order, err := h.service.VerifyPayment(r.Context(), actorFrom(r), service.VerifyPaymentInput{
		OrderID:          req.OrderID,
		GatewayOrderID:   req.RazorpayOrderID,
		GatewayPaymentID: req.RazorpayPaymentID,
		Signature:        req.RazorpaySignature,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Payment verified and order placed successfully", order)
}

// RetryPayment handles GET /api/v1/orders/{id}/retry-payment
func (h *OrderHandler) RetryPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, r, "id", chi.URLParam(r, "id"))
	if !ok {
		return
	}

	res, err := h.service.RetryPayment(r.Context(), actorFrom(r), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Razorpay order created", res)
}

// GetInvoice handles GET /api/v1/orders/{id}/invoice
func (h *OrderHandler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, r, "id", chi.URLParam(r, "id"))
	if !ok {
		return
	}

	file, err := h.service.GetOrderInvoice(r.Context(), actorFrom(r), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	http.ServeFile(w, r, file.Path)
}

// ListMyOrders handles GET /api/v1/orders
func (h *OrderHandler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)

	orders, total, err := h.service.ListMyOrders(r.Context(), actorFrom(r), params.Page, params.PerPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Orders fetched successfully", pagination.NewResult(orders, total, params))
}

// ListAllOrders handles GET /api/v1/orders/admin
func (h *OrderHandler) ListAllOrders(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)
	filter := repository.OrderFilter{Page: params.Page, PerPage: params.PerPage}

	if raw := r.URL.Query().Get("status"); raw != "" {
		status, ok := domain.ParseOrderStatus(raw)
		if !ok {
			httputil.WriteError(w, r, apperrors.Validation("Invalid status filter",
				map[string]string{"status": "unknown order status"}), h.logger)
			return
		}
		filter.Status = &status
	}
	if userID := r.URL.Query().Get("user_id"); userID != "" {
		filter.UserID = &userID
	}

	orders, total, err := h.service.ListOrders(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "All orders fetched successfully", pagination.NewResult(orders, total, params))
}

// CancelOrder handles PUT /api/v1/orders/{id}/cancel
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, r, "id", chi.URLParam(r, "id"))
	if !ok {
		return
	}

	order, err := h.service.CancelMyOrder(r.Context(), actorFrom(r), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Order cancelled", order)
}

// UpdateOrderStatus handles PUT /api/v1/orders/{id}
func (h *OrderHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, r, "id", chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteDecodeError(w, r, err)
		return
	}
	status, ok := domain.ParseOrderStatus(req.Status)
	if !ok {
		httputil.WriteError(w, r, apperrors.Validation("Invalid status",
			map[string]string{"status": "must be one of Pending, Processing, Shipped, Delivered, Cancelled"}), h.logger)
		return
	}

	order, err := h.service.UpdateOrderStatus(r.Context(), actorFrom(r), id.String(), status)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Order status updated", order)
}
