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

// WishlistService manages the caller's wishlist.
type WishlistService interface {
	GetWishlist(ctx context.Context, userID string) (*service.WishlistView, error)
	AddItem(ctx context.Context, userID, productID string) (*service.WishlistView, error)
	RemoveItem(ctx context.Context, userID, productID string) (*service.WishlistView, error)
}

// WishlistHandler handles HTTP requests for wishlist endpoints.
type WishlistHandler struct {
	service WishlistService
	logger  *slog.Logger
}

// NewWishlistHandler creates a new wishlist HTTP handler.
func NewWishlistHandler(svc WishlistService, logger *slog.Logger) *WishlistHandler {
	return &WishlistHandler{service: svc, logger: logger}
}

// AddWishlistItemRequest is the JSON request body for saving a product.
type AddWishlistItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
}

// GetWishlist handles GET /api/v1/wishlist
func (h *WishlistHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	wishlist, err := h.service.GetWishlist(r.Context(), actorFrom(r).UserID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Wishlist fetched successfully", wishlist)
}

// AddItem handles POST /api/v1/wishlist
func (h *WishlistHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddWishlistItemRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteDecodeError(w, r, err)
		return
	}

	wishlist, err := h.service.AddItem(r.Context(), actorFrom(r).UserID, req.ProductID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Product added to wishlist", wishlist)
}

// RemoveItem handles DELETE /api/v1/wishlist/{productID}
func (h *WishlistHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseUUID(w, r, "productID", chi.URLParam(r, "productID"))
	if !ok {
		return
	}

	wishlist, err := h.service.RemoveItem(r.Context(), actorFrom(r).UserID, productID.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Product removed from wishlist", wishlist)
}
