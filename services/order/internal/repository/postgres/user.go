package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/kitchencart/ecommerce/pkg/database"
	apperrors "github.com/kitchencart/ecommerce/pkg/errors"
	"github.com/kitchencart/ecommerce/services/order/internal/domain"
)

// UserRepository reads user profiles owned by the identity service and
// removes them on admin request.
type UserRepository struct {
	pool database.DBTX
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(pool database.DBTX) *UserRepository {
	return &UserRepository{pool: pool}
}

// GetByID returns the profile of a user.
func (r *UserRepository) GetByID(ctx context.Context, id string) (_ *domain.User, err error) {
	query := `SELECT id, name, email, role, address FROM users WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "users.get", query)
	defer func() { end(err) }()

	var (
		u           domain.User
		addressJSON []byte
	)
	err = r.pool.QueryRow(ctx, query, id).Scan(&u.ID, &u.Name, &u.Email, &u.Role, &addressJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || database.HasCode(err, database.CodeInvalidTextValue) {
			return nil, apperrors.NotFound("user", id)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := decodeAddress(addressJSON, &u.Address); err != nil {
		return nil, err
	}
	return &u, nil
}

// List returns one page of users, newest first, and the total count.
func (r *UserRepository) List(ctx context.Context, page, perPage int) (_ []domain.User, _ int, err error) {
	query := `
		SELECT id, name, email, role, address, created_at,
			count(*) OVER() AS total_count
		FROM users
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2`

	ctx, end := database.TraceQuery(ctx, "users.list", query)
	defer func() { end(err) }()

	limit, offset := limitOffset(page, perPage)
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var total int
	users := make([]domain.User, 0)
	for rows.Next() {
		var (
			u           domain.User
			addressJSON []byte
		)
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &addressJSON, &u.CreatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scan user row: %w", err)
		}
		if err := decodeAddress(addressJSON, &u.Address); err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate user rows: %w", err)
	}
	return users, total, nil
}

// Delete removes a user profile. Orders placed by the user are kept.
func (r *UserRepository) Delete(ctx context.Context, id string) (err error) {
	query := `DELETE FROM users WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "users.delete", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		if database.HasCode(err, database.CodeInvalidTextValue) {
			return apperrors.NotFound("user", id)
		}
		return fmt.Errorf("delete user: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", id)
	}
	return nil
}

func decodeAddress(raw []byte, addr *domain.Address) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, addr); err != nil {
		return fmt.Errorf("unmarshal address: %w", err)
	}
	return nil
}
