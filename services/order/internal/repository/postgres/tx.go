package postgres

import (
	"context"
	"fmt"

	"github.com/kitchencart/ecommerce/pkg/database"
	"github.com/kitchencart/ecommerce/services/order/internal/repository"
)

// TxManager implements repository.Transactor using PostgreSQL transactions.
type TxManager struct {
	pool database.DBTX
}

// NewTxManager creates a TxManager that begins transactions on pool.
func NewTxManager(pool database.DBTX) *TxManager {
	return &TxManager{pool: pool}
}

// WithinTx runs fn with repositories bound to a new transaction.
func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.TxRepos) error) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	repos := repository.TxRepos{
		Orders:   &OrderRepository{pool: tx, inTx: true},
		Products: NewProductRepository(tx),
	}
	if err := fn(ctx, repos); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
