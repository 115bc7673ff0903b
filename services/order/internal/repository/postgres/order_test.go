package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kitchencart/ecommerce/pkg/database"
	apperrors "github.com/kitchencart/ecommerce/pkg/errors"
	"github.com/kitchencart/ecommerce/services/order/internal/domain"
	"github.com/kitchencart/ecommerce/services/order/internal/repository"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

var orderColumnNames = []string{
	"id", "user_id", "status", "total_amount", "currency", "shipping_address",
	"payment_method", "gateway_order_id", "gateway_payment_id", "gateway_signature",
	"payment_status", "created_at", "updated_at",
}

func sampleAddress() domain.Address {
	return domain.Address{
		Name:    "Asha Rao",
		Street:  "12 MG Road",
		City:    "Bengaluru",
		State:   "KA",
		ZipCode: "560001",
		Country: "IN",
	}
}

func sampleOrder() *domain.Order {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return &domain.Order{
		ID:              "8f6c1a52-6b8e-4f0e-9a43-2f1e3c5d7a90",
		UserID:          "user-1",
		ShippingAddress: sampleAddress(),
		Items: []domain.OrderItem{
			{ProductID: "prod-1", Name: "Cast Iron Pan", Price: 149900, Quantity: 1},
			{ProductID: "prod-2", Name: "Chef Knife", Price: 89900, Quantity: 2},
		},
		TotalAmount: 329700,
		Currency:    domain.DefaultCurrency,
		Status:      domain.StatusProcessing,
		Payment:     domain.PaymentResult{Method: domain.MethodCOD, Status: domain.PaymentCOD},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestOrderRepository_Create(t *testing.T) {
	mock := newMock(t)
	repo := NewOrderRepository(mock)
	o := sampleOrder()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").
		WithArgs(
			o.ID, o.UserID, "Processing", o.TotalAmount, "INR", pgxmock.AnyArg(),
			"COD", "", "", "", "COD", o.CreatedAt, o.UpdatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	for i, item := range o.Items {
		mock.ExpectExec("INSERT INTO order_items").
			WithArgs(o.ID, i, item.ProductID, item.Name, item.Price, item.Quantity).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}
	mock.ExpectCommit()

	require.NoError(t, repo.Create(context.Background(), o))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_Create_ItemFailureRollsBack(t *testing.T) {
	mock := newMock(t)
	repo := NewOrderRepository(mock)
	o := sampleOrder()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").WithArgs(anyArgs(13)...).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO order_items").WithArgs(anyArgs(6)...).WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), o)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert order item")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func orderRow(t *testing.T, o *domain.Order) []any {
	t.Helper()
	addr, err := json.Marshal(o.ShippingAddress)
	require.NoError(t, err)
	return []any{
		o.ID, o.UserID, string(o.Status), o.TotalAmount, o.Currency, addr,
		string(o.Payment.Method), o.Payment.GatewayOrderID, o.Payment.GatewayPaymentID,
		o.Payment.GatewaySignature, string(o.Payment.Status), o.CreatedAt, o.UpdatedAt,
	}
}

func TestOrderRepository_GetByID(t *testing.T) {
	mock := newMock(t)
	repo := NewOrderRepository(mock)
	want := sampleOrder()

	itemsJSON, err := json.Marshal(want.Items)
	require.NoError(t, err)

	rows := pgxmock.NewRows(append(orderColumnNames, "items")).
		AddRow(append(orderRow(t, want), itemsJSON)...)
	mock.ExpectQuery("SELECT (.+) FROM orders o").WithArgs(want.ID).WillReturnRows(rows)

	got, err := repo.GetByID(context.Background(), want.ID)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_GetByIDForUser_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewOrderRepository(mock)

	mock.ExpectQuery("SELECT (.+) FROM orders o").
		WithArgs("order-1", "someone-else").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByIDForUser(context.Background(), "order-1", "someone-else")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_List(t *testing.T) {
	mock := newMock(t)
	repo := NewOrderRepository(mock)
	o := sampleOrder()
	userID := o.UserID

	rows := pgxmock.NewRows(append(orderColumnNames, "total_count")).
		AddRow(append(orderRow(t, o), 7)...)
	mock.ExpectQuery("SELECT (.+) FROM orders o WHERE o.user_id = \\$1").
		WithArgs(userID, 5, 5).
		WillReturnRows(rows)

	itemRows := pgxmock.NewRows([]string{"order_id", "product_id", "name", "price", "quantity"}).
		AddRow(o.ID, "prod-1", "Cast Iron Pan", int64(149900), 1).
		AddRow(o.ID, "prod-2", "Chef Knife", int64(89900), 2)
	mock.ExpectQuery("FROM order_items").WithArgs([]string{o.ID}).WillReturnRows(itemRows)

	orders, total, err := repo.List(context.Background(), repository.OrderFilter{UserID: &userID, Page: 2, PerPage: 5})
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	require.Len(t, orders, 1)
	assert.Equal(t, o.Items, orders[0].Items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_List_Empty(t *testing.T) {
	mock := newMock(t)
	repo := NewOrderRepository(mock)

	mock.ExpectQuery("SELECT (.+) FROM orders o").
		WithArgs(20, 0).
		WillReturnRows(pgxmock.NewRows(append(orderColumnNames, "total_count")))

	orders, total, err := repo.List(context.Background(), repository.OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_TransitionStatus(t *testing.T) {
	at := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{"winner", 1, true},
		{"lost race", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			repo := NewOrderRepository(mock)

			mock.ExpectExec("UPDATE orders SET status = \\$1, updated_at = \\$2 WHERE id = \\$3 AND status = \\$4").
				WithArgs("Cancelled", at, "order-1", "Processing").
				WillReturnResult(pgxmock.NewResult("UPDATE", tt.affected))

			ok, err := repo.TransitionStatus(context.Background(), "order-1", domain.StatusProcessing, domain.StatusCancelled, at)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestOrderRepository_TransitionPayment(t *testing.T) {
	mock := newMock(t)
	repo := NewOrderRepository(mock)
	at := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	tr := repository.PaymentTransition{
		FromStatus:  domain.StatusPending,
		FromPayment: domain.PaymentPending,
		ToStatus:    domain.StatusProcessing,
		Payment: domain.PaymentResult{
			Method:           domain.MethodOnline,
			GatewayOrderID:   "order_R1",
			GatewayPaymentID: "pay_R1",
			GatewaySignature: "abc",
			Status:           domain.PaymentPaid,
		},
	}

	mock.ExpectExec("UPDATE orders").
		WithArgs("Processing", "OnlinePayment", "order_R1", "pay_R1", "abc", "paid", at, "order-1", "Pending", "pending").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	ok, err := repo.TransitionPayment(context.Background(), "order-1", tr, at)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}
