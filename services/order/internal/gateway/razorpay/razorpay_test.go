package razorpay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/kitchencart/ecommerce/pkg/errors"
	"github.com/kitchencart/ecommerce/pkg/httpclient"
	"github.com/kitchencart/ecommerce/pkg/logger"
	"github.com/kitchencart/ecommerce/services/order/internal/gateway"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	doer := httpclient.New(httpclient.Config{Timeout: 2 * time.Second, MaxRetries: 2, RetryWaitMin: time.Millisecond, RetryWaitMax: time.Millisecond})
	return New(Config{KeyID: "rzp_test_key", KeySecret: "rzp_test_secret", BaseURL: srv.URL + "/"}, doer, logger.Discard()), &calls
}

func TestClient_CreateIntent(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/orders", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "rzp_test_key", user)
		assert.Equal(t, "rzp_test_secret", pass)

		var body createOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, int64(329700), body.Amount)
		assert.Equal(t, "INR", body.Currency)
		assert.Equal(t, "receipt_order_1767225600000", body.Receipt)
		assert.Equal(t, 1, body.PaymentCapture)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"order_R1","entity":"order","amount":329700,"currency":"INR","receipt":"receipt_order_1767225600000","status":"created"}`))
	})

	intent, err := client.CreateIntent(context.Background(), gateway.IntentInput{
		Amount:   329700,
		Currency: "INR",
		Receipt:  "receipt_order_1767225600000",
	})
	require.NoError(t, err)
	assert.Equal(t, "order_R1", intent.ID)
	assert.Equal(t, "created", intent.Status)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_CreateIntent_Rejected(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"The amount must be atleast INR 1.00"}}`))
	})

	_, err := client.CreateIntent(context.Background(), gateway.IntentInput{Amount: 50, Currency: "INR"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrPaymentFailed))
	assert.Contains(t, err.Error(), "The amount must be atleast INR 1.00")
}

func TestClient_CreateIntent_BadCredentials(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"Authentication failed"}}`))
	})

	_, err := client.CreateIntent(context.Background(), gateway.IntentInput{Amount: 1000, Currency: "INR"})
	assert.True(t, errors.Is(err, apperrors.ErrConfiguration))
}

func TestClient_CreateIntent_PostIsNotRetried(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.CreateIntent(context.Background(), gateway.IntentInput{Amount: 1000, Currency: "INR"})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_NotConfigured(t *testing.T) {
	client := New(Config{}, nil, logger.Discard())

	assert.False(t, client.Configured())
	_, err := client.CreateIntent(context.Background(), gateway.IntentInput{Amount: 1000})
	assert.True(t, errors.Is(err, apperrors.ErrConfiguration))
	assert.False(t, client.VerifySignature("order_1", "pay_1", gateway.ComputeSignature("", "order_1", "pay_1")))
}

func TestClient_VerifySignature(t *testing.T) {
	client := New(Config{KeyID: "k", KeySecret: "s"}, nil, logger.Discard())

	sig := gateway.ComputeSignature("s", "order_1", "pay_1")
	assert.True(t, client.VerifySignature("order_1", "pay_1", sig))
	assert.False(t, client.VerifySignature("order_1", "pay_2", sig))
}
