package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/kitchencart/ecommerce/pkg/database"
	apperrors "github.com/kitchencart/ecommerce/pkg/errors"
	"github.com/kitchencart/ecommerce/services/order/internal/domain"
	"github.com/kitchencart/ecommerce/services/order/internal/repository"
)

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	pool database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool database.DBTX) *ProductRepository {
	return &ProductRepository{pool: pool}
}

const productColumns = `id, name, description, category, mrp, selling_price, discount, stock, images, created_at, updated_at`

func scanProduct(row pgx.Row, extra ...any) (*domain.Product, error) {
	var p domain.Product
	dest := []any{
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Category,
		&p.MRP,
		&p.SellingPrice,
		&p.Discount,
		&p.Stock,
		&p.Images,
		&p.CreatedAt,
		&p.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	return &p, nil
}

// GetByID retrieves a product by its ID.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (_ *domain.Product, err error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "products.get", query)
	defer func() { end(err) }()

	p, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || database.HasCode(err, database.CodeInvalidTextValue) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// GetByIDs returns the existing products among ids keyed by ID.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) (_ map[string]*domain.Product, err error) {
	out := make(map[string]*domain.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE id::text = ANY($1)`

	ctx, end := database.TraceQuery(ctx, "products.get_many", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		out[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}
	return out, nil
}

// List returns products matching q with the total count. Filter columns come
// from the allow-list in repository.ProductFilterBuilder and every value is
// bound as a parameter.
func (r *ProductRepository) List(ctx context.Context, q repository.ProductQuery) (_ []domain.Product, _ int, err error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	for _, f := range q.Filters {
		if f.Op == repository.OpIn {
			conditions = append(conditions, fmt.Sprintf("%s = ANY($%d)", f.Column, argIndex))
		} else {
			conditions = append(conditions, fmt.Sprintf("%s %s $%d", f.Column, f.Op.SQL(), argIndex))
		}
		args = append(args, f.Value)
		argIndex++
	}

	if search := strings.TrimSpace(q.Search); search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+escapeLike(search)+"%")
		argIndex++
	}

	orderBy, err := repository.ProductOrderBy(q.Sort)
	if err != nil {
		return nil, 0, err
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s,
			count(*) OVER() AS total_count
		FROM products
		%s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`,
		productColumns, whereClause, orderBy, argIndex, argIndex+1,
	)

	limit, offset := limitOffset(q.Page, q.PerPage)
	args = append(args, limit, offset)

	ctx, end := database.TraceQuery(ctx, "products.list", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var total int
	products := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate product rows: %w", err)
	}
	return products, total, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Create inserts a new product.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) (err error) {
	query := `
		INSERT INTO products (id, name, description, category, mrp, selling_price, discount, stock, images, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	ctx, end := database.TraceQuery(ctx, "products.create", query)
	defer func() { end(err) }()

	_, err = r.pool.Exec(ctx, query,
		p.ID, p.Name, p.Description, p.Category, p.MRP, p.SellingPrice,
		p.Discount, p.Stock, p.Images, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperrors.AlreadyExists("product", "id", p.ID)
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// Update overwrites the editable fields of a product.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) (err error) {
	query := `
		UPDATE products
		SET name = $1, description = $2, category = $3, mrp = $4, selling_price = $5,
			discount = $6, stock = $7, images = $8, updated_at = $9
		WHERE id = $10`

	ctx, end := database.TraceQuery(ctx, "products.update", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query,
		p.Name, p.Description, p.Category, p.MRP, p.SellingPrice,
		p.Discount, p.Stock, p.Images, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", p.ID)
	}
	return nil
}

// Delete removes a product. Existing orders keep their item snapshots.
func (r *ProductRepository) Delete(ctx context.Context, id string) (err error) {
	query := `DELETE FROM products WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "products.delete", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		if database.HasCode(err, database.CodeInvalidTextValue) {
			return apperrors.NotFound("product", id)
		}
		return fmt.Errorf("delete product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", id)
	}
	return nil
}

// DecrementStock lowers stock in a single statement, never below zero.
func (r *ProductRepository) DecrementStock(ctx context.Context, id string, qty int) (_ bool, err error) {
	query := `UPDATE products SET stock = GREATEST(stock - $1, 0), updated_at = NOW() WHERE id = $2`

	ctx, end := database.TraceQuery(ctx, "products.decrement_stock", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query, qty, id)
	if err != nil {
		return false, fmt.Errorf("decrement stock: %w", err)
	}
	return ct.RowsAffected() == 1, nil
}

// IncrementStock raises stock in a single statement.
func (r *ProductRepository) IncrementStock(ctx context.Context, id string, qty int) (_ bool, err error) {
	query := `UPDATE products SET stock = stock + $1, updated_at = NOW() WHERE id = $2`

	ctx, end := database.TraceQuery(ctx, "products.increment_stock", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query, qty, id)
	if err != nil {
		return false, fmt.Errorf("increment stock: %w", err)
	}
	return ct.RowsAffected() == 1, nil
}
