package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kitchencart/ecommerce/services/order/internal/domain"
	"github.com/kitchencart/ecommerce/services/order/internal/repository"
)

const decrementStockSQL = `UPDATE products SET stock = GREATEST\(stock - \$1, 0\)`

func paidTransition() repository.PaymentTransition {
	return repository.PaymentTransition{
		FromStatus:  domain.StatusPending,
		FromPayment: domain.PaymentPending,
		ToStatus:    domain.StatusProcessing,
		Payment:     domain.PaymentResult{Method: domain.MethodOnline, GatewayOrderID: "order_R1", Status: domain.PaymentPaid},
	}
}

func TestTxManager_CommitsPaymentAndStock(t *testing.T) {
	mock := newMock(t)
	txm := NewTxManager(mock)
	at := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE orders").WithArgs(anyArgs(10)...).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(decrementStockSQL).WithArgs(2, "prod-1").WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	err := txm.WithinTx(context.Background(), func(ctx context.Context, repos repository.TxRepos) error {
		won, err := repos.Orders.TransitionPayment(ctx, "order-1", paidTransition(), at)
		require.NoError(t, err)
		require.True(t, won)
		_, err = repos.Products.DecrementStock(ctx, "prod-1", 2)
		return err
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTxManager_StockFailureRollsBackPayment(t *testing.T) {
	mock := newMock(t)
	txm := NewTxManager(mock)
	at := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE orders").WithArgs(anyArgs(10)...).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(decrementStockSQL).WithArgs(2, "prod-1").WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := txm.WithinTx(context.Background(), func(ctx context.Context, repos repository.TxRepos) error {
		if _, err := repos.Orders.TransitionPayment(ctx, "order-1", paidTransition(), at); err != nil {
			return err
		}
		_, err := repos.Products.DecrementStock(ctx, "prod-1", 2)
		return err
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTxManager_CreateJoinsTransaction(t *testing.T) {
	mock := newMock(t)
	txm := NewTxManager(mock)
	o := sampleOrder()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").WithArgs(anyArgs(13)...).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	for range o.Items {
		mock.ExpectExec("INSERT INTO order_items").WithArgs(anyArgs(6)...).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}
	for _, item := range o.Items {
		mock.ExpectExec(decrementStockSQL).WithArgs(item.Quantity, item.ProductID).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	}
	mock.ExpectCommit()

	err := txm.WithinTx(context.Background(), func(ctx context.Context, repos repository.TxRepos) error {
		if err := repos.Orders.Create(ctx, o); err != nil {
			return err
		}
		for _, item := range o.Items {
			if _, err := repos.Products.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTxManager_BeginFailure(t *testing.T) {
	mock := newMock(t)
	txm := NewTxManager(mock)

	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

	called := false
	err := txm.WithinTx(context.Background(), func(context.Context, repository.TxRepos) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin transaction")
	assert.False(t, called)
	assert.NoError(t, mock.ExpectationsWereMet())
}
