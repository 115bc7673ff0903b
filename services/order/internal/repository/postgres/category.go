package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/kitchencart/ecommerce/pkg/database"
	apperrors "github.com/kitchencart/ecommerce/pkg/errors"
	"github.com/kitchencart/ecommerce/services/order/internal/domain"
)

// CategoryRepository implements repository.CategoryRepository using PostgreSQL.
type CategoryRepository struct {
	pool database.DBTX
}

// NewCategoryRepository creates a new PostgreSQL-backed category repository.
func NewCategoryRepository(pool database.DBTX) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

const categoryColumns = `id, name, description, created_at, updated_at`

func scanCategory(row pgx.Row) (*domain.Category, error) {
	var c domain.Category
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns every category ordered by name.
func (r *CategoryRepository) List(ctx context.Context) (_ []domain.Category, err error) {
	query := `SELECT ` + categoryColumns + ` FROM categories ORDER BY name`

	ctx, end := database.TraceQuery(ctx, "categories.list", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]domain.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category row: %w", err)
		}
		categories = append(categories, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category rows: %w", err)
	}
	return categories, nil
}

// GetByID retrieves a category by its ID.
func (r *CategoryRepository) GetByID(ctx context.Context, id string) (_ *domain.Category, err error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "categories.get", query)
	defer func() { end(err) }()

	c, err := scanCategory(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || database.HasCode(err, database.CodeInvalidTextValue) {
			return nil, apperrors.NotFound("category", id)
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

// Create inserts a category. Names are unique.
func (r *CategoryRepository) Create(ctx context.Context, c *domain.Category) (err error) {
	query := `
		INSERT INTO categories (id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`

	ctx, end := database.TraceQuery(ctx, "categories.create", query)
	defer func() { end(err) }()

	_, err = r.pool.Exec(ctx, query, c.ID, c.Name, c.Description, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperrors.AlreadyExists("category", "name", c.Name)
		}
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

// Update overwrites a category and relabels its products on rename.
func (r *CategoryRepository) Update(ctx context.Context, c *domain.Category, oldName string) (err error) {
	ctx, end := database.TraceQuery(ctx, "categories.update", "UPDATE categories")
	defer func() { end(err) }()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	updateQuery := `
		UPDATE categories
		SET name = $1, description = $2, updated_at = $3
		WHERE id = $4`

	ct, err := tx.Exec(ctx, updateQuery, c.Name, c.Description, c.UpdatedAt, c.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperrors.AlreadyExists("category", "name", c.Name)
		}
		return fmt.Errorf("update category: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("category", c.ID)
	}

	if oldName != c.Name {
		relabelQuery := `UPDATE products SET category = $1, updated_at = $2 WHERE category = $3`
		if _, err := tx.Exec(ctx, relabelQuery, c.Name, c.UpdatedAt, oldName); err != nil {
			return fmt.Errorf("relabel products: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Delete removes a category.
func (r *CategoryRepository) Delete(ctx context.Context, id string) (err error) {
	query := `DELETE FROM categories WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "categories.delete", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		if database.HasCode(err, database.CodeInvalidTextValue) {
			return apperrors.NotFound("category", id)
		}
		return fmt.Errorf("delete category: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("category", id)
	}
	return nil
}

// InUse reports whether any product carries the category name.
func (r *CategoryRepository) InUse(ctx context.Context, name string) (_ bool, err error) {
	query := `SELECT EXISTS (SELECT 1 FROM products WHERE category = $1)`

	ctx, end := database.TraceQuery(ctx, "categories.in_use", query)
	defer func() { end(err) }()

	var used bool
	if err := r.pool.QueryRow(ctx, query, name).Scan(&used); err != nil {
		return false, fmt.Errorf("check category usage: %w", err)
	}
	return used, nil
}
