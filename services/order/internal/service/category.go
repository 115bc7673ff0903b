package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/kitchencart/ecommerce/pkg/errors"
	"github.com/kitchencart/ecommerce/services/order/internal/domain"
	"github.com/kitchencart/ecommerce/services/order/internal/repository"
)

// CategoryService manages the catalog categories.
type CategoryService struct {
	repo   repository.CategoryRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewCategoryService creates a new category service.
func NewCategoryService(repo repository.CategoryRepository, logger *slog.Logger) *CategoryService {
	return &CategoryService{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CategoryInput holds the data needed to create a category.
type CategoryInput struct {
	Name        string
	Description string
}

// UpdateCategoryInput holds the fields to change. Nil fields are left as is.
type UpdateCategoryInput struct {
	Name        *string
	Description *string
}

// ListCategories returns every category ordered by name.
func (s *CategoryService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// GetCategory returns a single category.
func (s *CategoryService) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	return s.repo.GetByID(ctx, id)
}

// CreateCategory adds a category. Names are unique.
func (s *CategoryService) CreateCategory(ctx context.Context, in CategoryInput) (*domain.Category, error) {
	now := s.now()
	c := &domain.Category{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	c.Normalize()
	if fields := c.ValidationErrors(); len(fields) > 0 {
		return nil, apperrors.Validation("Invalid category", fields)
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}

	s.logger.InfoContext(ctx, "category created",
		slog.String("category_id", c.ID),
		slog.String("name", c.Name),
	)
	return c, nil
}

// UpdateCategory applies the given changes. Renaming a category relabels the
// products filed under the old name.
func (s *CategoryService) UpdateCategory(ctx context.Context, id string, in UpdateCategoryInput) (*domain.Category, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	oldName := c.Name

	if in.Name != nil {
		c.Name = *in.Name
	}
	if in.Description != nil {
		c.Description = *in.Description
	}
	c.Normalize()
	if fields := c.ValidationErrors(); len(fields) > 0 {
		return nil, apperrors.Validation("Invalid category", fields)
	}
	c.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, c, oldName); err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}

	attrs := []any{slog.String("category_id", c.ID)}
	if oldName != c.Name {
		attrs = append(attrs, slog.String("renamed_from", oldName))
	}
	s.logger.InfoContext(ctx, "category updated", attrs...)
	return c, nil
}

// DeleteCategory removes a category that no product is filed under.
func (s *CategoryService) DeleteCategory(ctx context.Context, id string) error {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	used, err := s.repo.InUse(ctx, c.Name)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if used {
		return apperrors.Conflict("Category still has products")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "category deleted", slog.String("category_id", id))
	return nil
}
