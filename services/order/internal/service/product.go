package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/kitchencart/ecommerce/pkg/errors"
	"github.com/kitchencart/ecommerce/pkg/pagination"
	"github.com/kitchencart/ecommerce/services/order/internal/domain"
	"github.com/kitchencart/ecommerce/services/order/internal/repository"
)

// ProductService serves the catalog.
type ProductService struct {
	repo    repository.ProductRepository
	filters repository.ProductFilterBuilder
	logger  *slog.Logger
	now     func() time.Time
}

// NewProductService creates a new product service.
func NewProductService(repo repository.ProductRepository, logger *slog.Logger) *ProductService {
	return &ProductService{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CreateProductInput holds the data needed to create a product.
type CreateProductInput struct {
	Name         string
	Description  string
	Category     string
	MRP          int64
	SellingPrice int64
	Stock        int
	Images       []string
}

// UpdateProductInput holds the fields to change. Nil fields are left as is.
type UpdateProductInput struct {
	Name         *string
	Description  *string
	Category     *string
	MRP          *int64
	SellingPrice *int64
	Stock        *int
	Images       []string
}

// ListProducts lists the catalog from raw query parameters. Filter keys
// other than page, limit, search and sort must be known product fields.
func (s *ProductService) ListProducts(ctx context.Context, query url.Values, params pagination.Params) ([]domain.Product, int, error) {
	filters, err := s.filters.Build(query)
	if err != nil {
		return nil, 0, err
	}
	sort := query.Get("sort")
	if _, err := repository.ProductOrderBy(sort); err != nil {
		return nil, 0, err
	}

	products, total, err := s.repo.List(ctx, repository.ProductQuery{
		Filters: filters,
		Search:  strings.TrimSpace(query.Get("search")),
		Sort:    sort,
		Page:    params.Page,
		PerPage: params.PerPage,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return products, total, nil
}

// GetProduct returns a single product.
func (s *ProductService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// CreateProduct adds a product with its discount computed from the prices.
func (s *ProductService) CreateProduct(ctx context.Context, in CreateProductInput) (*domain.Product, error) {
	now := s.now()
	p := &domain.Product{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(in.Name),
		Description:  in.Description,
		Category:     strings.TrimSpace(in.Category),
		MRP:          in.MRP,
		SellingPrice: in.SellingPrice,
		Stock:        in.Stock,
		Images:       in.Images,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	p.ApplyDiscount()

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", p.ID),
		slog.String("name", p.Name),
	)
	return p, nil
}

// UpdateProduct applies the given changes and recomputes the discount.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, in UpdateProductInput) (*domain.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Category != nil {
		p.Category = strings.TrimSpace(*in.Category)
	}
	if in.MRP != nil {
		p.MRP = *in.MRP
	}
	if in.SellingPrice != nil {
		p.SellingPrice = *in.SellingPrice
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.Images != nil {
		p.Images = in.Images
	}
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	p.ApplyDiscount()
	p.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.logger.InfoContext(ctx, "product updated", slog.String("product_id", p.ID))
	return p, nil
}

// DeleteProduct removes a product. Orders keep their item snapshots.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "product deleted", slog.String("product_id", id))
	return nil
}

func validateProduct(p *domain.Product) error {
	fields := make(map[string]string)
	if p.Name == "" {
		fields["name"] = "is required"
	}
	if p.MRP <= 0 {
		fields["mrp"] = "must be greater than 0"
	}
	if p.SellingPrice <= 0 {
		fields["selling_price"] = "must be greater than 0"
	} else if p.SellingPrice > p.MRP {
		fields["selling_price"] = "must not exceed mrp"
	}
	if p.Stock < 0 {
		fields["stock"] = "must not be negative"
	}
	if len(fields) > 0 {
		return apperrors.Validation("Invalid product", fields)
	}
	return nil
}
