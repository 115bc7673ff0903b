package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kitchencart/ecommerce/pkg/database"
	apperrors "github.com/kitchencart/ecommerce/pkg/errors"
	"github.com/kitchencart/ecommerce/services/order/internal/domain"
	"github.com/kitchencart/ecommerce/services/order/internal/repository"
)

// OrderRepository implements repository.OrderRepository using PostgreSQL.
type OrderRepository struct {
	pool database.DBTX
	// inTx is set when pool is already a transaction owned by a TxManager.
	inTx bool
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool database.DBTX) *OrderRepository {
	return &OrderRepository{pool: pool}
}

const orderColumns = `o.id, o.user_id, o.status, o.total_amount, o.currency, o.shipping_address,
			o.payment_method, o.gateway_order_id, o.gateway_payment_id, o.gateway_signature,
			o.payment_status, o.created_at, o.updated_at`

// Create inserts a new order and its items atomically within a transaction.
// Inside a TxManager transaction it joins the caller's transaction.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) (err error) {
	ctx, end := database.TraceQuery(ctx, "orders.create", "INSERT INTO orders")
	defer func() { end(err) }()

	shippingJSON, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return fmt.Errorf("marshal shipping address: %w", err)
	}

	if r.inTx {
		return insertOrder(ctx, r.pool, o, shippingJSON)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := insertOrder(ctx, tx, o, shippingJSON); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// insertOrder writes the order row and its items through q.
func insertOrder(ctx context.Context, q database.DBTX, o *domain.Order, shippingJSON []byte) error {
	orderQuery := `
		INSERT INTO orders (id, user_id, status, total_amount, currency, shipping_address,
			payment_method, gateway_order_id, gateway_payment_id, gateway_signature,
			payment_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := q.Exec(ctx, orderQuery,
		o.ID,
		o.UserID,
		string(o.Status),
		o.TotalAmount,
		o.Currency,
		shippingJSON,
		string(o.Payment.Method),
		o.Payment.GatewayOrderID,
		o.Payment.GatewayPaymentID,
		o.Payment.GatewaySignature,
		string(o.Payment.Status),
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (order_id, position, product_id, name, price, quantity)
		VALUES ($1, $2, $3, $4, $5, $6)`

	for i, item := range o.Items {
		_, err = q.Exec(ctx, itemQuery, o.ID, i, item.ProductID, item.Name, item.Price, item.Quantity)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

// GetByID retrieves an order by its ID with its items.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.get(ctx, "orders.get", `o.id = $1`, id)
}

// GetByIDForUser retrieves an order only if it belongs to userID.
func (r *OrderRepository) GetByIDForUser(ctx context.Context, id, userID string) (*domain.Order, error) {
	return r.get(ctx, "orders.get_for_user", `o.id = $1 AND o.user_id = $2`, id, userID)
}

func (r *OrderRepository) get(ctx context.Context, op, where string, args ...any) (_ *domain.Order, err error) {
	query := `
		SELECT ` + orderColumns + `,
			COALESCE(
				JSONB_AGG(
					JSONB_BUILD_OBJECT(
						'product_id', oi.product_id,
						'name', oi.name,
						'price', oi.price,
						'quantity', oi.quantity
					) ORDER BY oi.position
				) FILTER (WHERE oi.order_id IS NOT NULL),
				'[]'::jsonb
			) AS items
		FROM orders o
		LEFT JOIN order_items oi ON o.id = oi.order_id
		WHERE ` + where + `
		GROUP BY o.id`

	ctx, end := database.TraceQuery(ctx, op, query)
	defer func() { end(err) }()

	var itemsJSON []byte
	o, err := scanOrder(r.pool.QueryRow(ctx, query, args...), &itemsJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("order", fmt.Sprint(args[0]))
		}
		if database.HasCode(err, database.CodeInvalidTextValue) {
			return nil, apperrors.NotFound("order", fmt.Sprint(args[0]))
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}

	o.Items = []domain.OrderItem{}
	if len(itemsJSON) > 0 && string(itemsJSON) != "null" {
		if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
			return nil, fmt.Errorf("unmarshal order items: %w", err)
		}
	}
	return o, nil
}

// scanOrder reads orderColumns followed by extra destinations.
func scanOrder(row pgx.Row, extra ...any) (*domain.Order, error) {
	var (
		o            domain.Order
		status       string
		method       string
		payStatus    string
		shippingJSON []byte
	)

	dest := []any{
		&o.ID,
		&o.UserID,
		&status,
		&o.TotalAmount,
		&o.Currency,
		&shippingJSON,
		&method,
		&o.Payment.GatewayOrderID,
		&o.Payment.GatewayPaymentID,
		&o.Payment.GatewaySignature,
		&payStatus,
		&o.CreatedAt,
		&o.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	o.Status = domain.OrderStatus(status)
	o.Payment.Method = domain.PaymentMethod(method)
	o.Payment.Status = domain.PaymentStatus(payStatus)

	if len(shippingJSON) > 0 && string(shippingJSON) != "null" {
		if err := json.Unmarshal(shippingJSON, &o.ShippingAddress); err != nil {
			return nil, fmt.Errorf("unmarshal shipping address: %w", err)
		}
	}
	return &o, nil
}

// List returns orders matching the filter, newest first, with the total count.
func (r *OrderRepository) List(ctx context.Context, filter repository.OrderFilter) (_ []domain.Order, _ int, err error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("o.user_id = $%d", argIndex))
		args = append(args, *filter.UserID)
		argIndex++
	}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("o.status = $%d", argIndex))
		args = append(args, string(*filter.Status))
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s,
			count(*) OVER() AS total_count
		FROM orders o
		%s
		ORDER BY o.created_at DESC
		LIMIT $%d OFFSET $%d`,
		orderColumns, whereClause, argIndex, argIndex+1,
	)

	limit, offset := limitOffset(filter.Page, filter.PerPage)
	args = append(args, limit, offset)

	ctx, end := database.TraceQuery(ctx, "orders.list", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var totalCount int
	orders := make([]domain.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows, &totalCount)
		if err != nil {
			return nil, 0, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate order rows: %w", err)
	}

	if err := r.attachItems(ctx, orders); err != nil {
		return nil, 0, err
	}
	return orders, totalCount, nil
}

// attachItems batch-loads the items of orders in a single query.
func (r *OrderRepository) attachItems(ctx context.Context, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]string, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
	}

	itemsQuery := `
		SELECT order_id, product_id, name, price, quantity
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, position`

	rows, err := r.pool.Query(ctx, itemsQuery, ids)
	if err != nil {
		return fmt.Errorf("batch load order items: %w", err)
	}
	defer rows.Close()

	byOrder := make(map[string][]domain.OrderItem, len(orders))
	for rows.Next() {
		var (
			orderID string
			item    domain.OrderItem
		)
		if err := rows.Scan(&orderID, &item.ProductID, &item.Name, &item.Price, &item.Quantity); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		byOrder[orderID] = append(byOrder[orderID], item)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate order item rows: %w", err)
	}

	for i := range orders {
		if items, ok := byOrder[orders[i].ID]; ok {
			orders[i].Items = items
		} else {
			orders[i].Items = []domain.OrderItem{}
		}
	}
	return nil
}

// TransitionStatus updates the status only while it still equals from.
func (r *OrderRepository) TransitionStatus(ctx context.Context, id string, from, to domain.OrderStatus, at time.Time) (_ bool, err error) {
	query := `
		UPDATE orders
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4`

	ctx, end := database.TraceQuery(ctx, "orders.transition_status", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query, string(to), at, id, string(from))
	if err != nil {
		return false, fmt.Errorf("transition order status: %w", err)
	}
	return ct.RowsAffected() == 1, nil
}

// TransitionPayment replaces the payment result and status only while the
// stored status and payment status still match the expected values.
func (r *OrderRepository) TransitionPayment(ctx context.Context, id string, t repository.PaymentTransition, at time.Time) (_ bool, err error) {
	query := `
		UPDATE orders
		SET status = $1, payment_method = $2, gateway_order_id = $3, gateway_payment_id = $4,
			gateway_signature = $5, payment_status = $6, updated_at = $7
		WHERE id = $8 AND status = $9 AND payment_status = $10`

	ctx, end := database.TraceQuery(ctx, "orders.transition_payment", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query,
		string(t.ToStatus),
		string(t.Payment.Method),
		t.Payment.GatewayOrderID,
		t.Payment.GatewayPaymentID,
		t.Payment.GatewaySignature,
		string(t.Payment.Status),
		at,
		id,
		string(t.FromStatus),
		string(t.FromPayment),
	)
	if err != nil {
		return false, fmt.Errorf("transition order payment: %w", err)
	}
	return ct.RowsAffected() == 1, nil
}

func limitOffset(page, perPage int) (int, int) {
	if perPage <= 0 {
		perPage = 20
	}
	offset := 0
	if page > 1 {
		offset = (page - 1) * perPage
	}
	return perPage, offset
}
