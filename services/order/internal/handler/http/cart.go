package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kitchencart/ecommerce/pkg/httputil"
	"github.com/kitchencart/ecommerce/pkg/validator"
	"github.com/kitchencart/ecommerce/services/order/internal/service"
)

// CartService manages the caller's cart.
type CartService interface {
	GetCart(ctx context.Context, userID string) (*service.CartView, error)
	AddItem(ctx context.Context, userID, productID string, quantity int) (*service.CartView, error)
	UpdateItem(ctx context.Context, userID, productID string, quantity int) (*service.CartView, error)
	RemoveItem(ctx context.Context, userID, productID string) (*service.CartView, error)
	Clear(ctx context.Context, userID string) error
}

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	service CartService
	logger  *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(svc CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{service: svc, logger: logger}
}

// AddItemRequest is the JSON request body for adding a product to the cart.
type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gte=1,lte=100"`
}

// UpdateItemRequest is the JSON request body for changing a quantity.
type UpdateItemRequest struct {
	Quantity int `json:"quantity" validate:"required,gte=1,lte=100"`
}

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.GetCart(r.Context(), actorFrom(r).UserID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Cart fetched successfully", cart)
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteDecodeError(w, r, err)
		return
	}

	cart, err := h.service.AddItem(r.Context(), actorFrom(r).UserID, req.ProductID, req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Item added to cart", cart)
}

// UpdateItem handles PUT /api/v1/cart/items/{productID}
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseUUID(w, r, "productID", chi.URLParam(r, "productID"))
	if !ok {
		return
	}

	var req UpdateItemRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteDecodeError(w, r, err)
		return
	}

	cart, err := h.service.UpdateItem(r.Context(), actorFrom(r).UserID, productID.String(), req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Cart updated", cart)
}

// RemoveItem handles DELETE /api/v1/cart/items/{productID}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseUUID(w, r, "productID", chi.URLParam(r, "productID"))
	if !ok {
		return
	}

	cart, err := h.service.RemoveItem(r.Context(), actorFrom(r).UserID, productID.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Item removed from cart", cart)
}

// ClearCart handles DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Clear(r.Context(), actorFrom(r).UserID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Cart cleared", nil)
}
