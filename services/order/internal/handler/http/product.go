package http

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/kitchencart/ecommerce/pkg/httputil"
	"github.com/kitchencart/ecommerce/pkg/pagination"
	"github.com/kitchencart/ecommerce/pkg/validator"
	"github.com/kitchencart/ecommerce/services/order/internal/domain"
	"github.com/kitchencart/ecommerce/services/order/internal/service"
)

// ProductService serves and maintains the catalog.
type ProductService interface {
	ListProducts(ctx context.Context, query url.Values, params pagination.Params) ([]domain.Product, int, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	CreateProduct(ctx context.Context, in service.CreateProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id string, in service.UpdateProductInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

// ProductHandler handles HTTP requests for catalog endpoints.
type ProductHandler struct {
	service ProductService
	logger  *slog.Logger
}

// NewProductHandler creates a new product HTTP handler.
func NewProductHandler(svc ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{service: svc, logger: logger}
}

// CreateProductRequest is the JSON request body for creating a product.
// Prices are minor units.
type CreateProductRequest struct {
	Name         string   `json:"name" validate:"required,notblank,max=200"`
	Description  string   `json:"description" validate:"max=5000"`
	Category     string   `json:"category" validate:"required,notblank,max=100"`
	MRP          int64    `json:"mrp" validate:"required,gt=0"`
	SellingPrice int64    `json:"selling_price" validate:"required,gt=0"`
	Stock        int      `json:"stock" validate:"gte=0"`
	Images       []string `json:"images" validate:"omitempty,max=10,dive,url"`
}

// UpdateProductRequest is the JSON request body for updating a product.
// Omitted fields are left unchanged.
type UpdateProductRequest struct {
	Name         *string  `json:"name" validate:"omitempty,notblank,max=200"`
	Description  *string  `json:"description" validate:"omitempty,max=5000"`
	Category     *string  `json:"category" validate:"omitempty,notblank,max=100"`
	MRP          *int64   `json:"mrp" validate:"omitempty,gt=0"`
	SellingPrice *int64   `json:"selling_price" validate:"omitempty,gt=0"`
	Stock        *int     `json:"stock" validate:"omitempty,gte=0"`
	Images       []string `json:"images" validate:"omitempty,max=10,dive,url"`
}

// ListProducts handles GET /api/v1/products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)

	products, total, err := h.service.ListProducts(r.Context(), r.URL.Query(), params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Products fetched successfully", pagination.NewResult(products, total, params))
}

// GetProduct handles GET /api/v1/products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, r, "id", chi.URLParam(r, "id"))
	if !ok {
		return
	}

	product, err := h.service.GetProduct(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Product fetched successfully", product)
}

// CreateProduct handles POST /api/v1/products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteDecodeError(w, r, err)
		return
	}

	product, err := h.service.CreateProduct(r.Context(), service.CreateProductInput{
		Name:         req.Name,
		Description:  req.Description,
		Category:     req.Category,
		MRP:          req.MRP,
		SellingPrice: req.SellingPrice,
		Stock:        req.Stock,
		Images:       req.Images,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusCreated, "Product created successfully", product)
}

// UpdateProduct handles PUT /api/v1/products/{id}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, r, "id", chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req UpdateProductRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteDecodeError(w, r, err)
		return
	}

	product, err := h.service.UpdateProduct(r.Context(), id.String(), service.UpdateProductInput{
		Name:         req.Name,
		Description:  req.Description,
		Category:     req.Category,
		MRP:          req.MRP,
		SellingPrice: req.SellingPrice,
		Stock:        req.Stock,
		Images:       req.Images,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Product updated successfully", product)
}

// DeleteProduct handles DELETE /api/v1/products/{id}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, r, "id", chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteProduct(r.Context(), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Product deleted successfully", nil)
}
