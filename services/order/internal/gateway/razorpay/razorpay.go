// Package razorpay creates payment intents through the Razorpay Orders API.
package razorpay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	apperrors "github.com/kitchencart/ecommerce/pkg/errors"
	"github.com/kitchencart/ecommerce/pkg/httpclient"
	"github.com/kitchencart/ecommerce/services/order/internal/gateway"
)

// DefaultBaseURL is the production API root.
const DefaultBaseURL = "https://api.razorpay.com"

// Config holds merchant credentials.
type Config struct {
	KeyID     string
	KeySecret string
	BaseURL   string
}

// Client implements gateway.Gateway against Razorpay.
type Client struct {
	cfg    Config
	doer   httpclient.Doer
	logger *slog.Logger
}

// New creates a Client. The Doer is normally a retrying client wrapped in a
// circuit breaker; see NewDoer.
func New(cfg Config, doer httpclient.Doer, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{cfg: cfg, doer: doer, logger: logger}
}

// Outbound request quota kept below Razorpay's per-key API limit.
const (
	requestsPerSecond = 20
	requestBurst      = 40
)

// NewDoer builds the outbound client for Razorpay. Order creation is not
// idempotent, so POSTs are never retried.
func NewDoer(logger *slog.Logger) httpclient.Doer {
	cfg := httpclient.DefaultConfig()
	cfg.RetryUnsafe = false
	breaker := httpclient.NewCircuitBreakerClient(
		httpclient.New(cfg),
		httpclient.DefaultCircuitBreakerConfig("razorpay"),
		logger,
	)
	return httpclient.NewRateLimitedClient(breaker, "razorpay", requestsPerSecond, requestBurst)
}

// Name returns the gateway name.
func (c *Client) Name() string { return "razorpay" }

// Configured reports whether both key id and secret are set.
func (c *Client) Configured() bool {
	return c.cfg.KeyID != "" && c.cfg.KeySecret != ""
}

// KeyID returns the public key id.
func (c *Client) KeyID() string { return c.cfg.KeyID }

type createOrderRequest struct {
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	Receipt        string `json:"receipt"`
	PaymentCapture int    `json:"payment_capture"`
}

// CreateIntent creates a Razorpay order.
func (c *Client) CreateIntent(ctx context.Context, input gateway.IntentInput) (*gateway.PaymentIntent, error) {
	if !c.Configured() {
		return nil, apperrors.Configuration("Razorpay is not configured")
	}

	body, err := json.Marshal(createOrderRequest{
		Amount:         input.Amount,
		Currency:       input.Currency,
		Receipt:        input.Receipt,
		PaymentCapture: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal razorpay order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build razorpay request: %w", err)
	}
	req.SetBasicAuth(c.cfg.KeyID, c.cfg.KeySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.doer.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("razorpay create order: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, toPaymentError(httpclient.ParseResponseError(resp, "razorpay"))
	}
	defer func() { _ = resp.Body.Close() }()

	var intent gateway.PaymentIntent
	if err := json.NewDecoder(resp.Body).Decode(&intent); err != nil {
		return nil, fmt.Errorf("decode razorpay order: %w", err)
	}
	if intent.ID == "" {
		return nil, apperrors.PaymentFailed("razorpay: order response without id")
	}

	c.logger.InfoContext(ctx, "razorpay order created",
		slog.String("gateway_order_id", intent.ID),
		slog.Int64("amount", intent.Amount),
		slog.String("receipt", intent.Receipt),
	)
	return &intent, nil
}

// toPaymentError keeps configuration errors and reports every other
// rejection as a failed payment.
func toPaymentError(err error) error {
	if errors.Is(err, apperrors.ErrConfiguration) {
		return err
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return apperrors.PaymentFailed(appErr.Message)
	}
	return apperrors.PaymentFailed(err.Error())
}

// VerifySignature checks a checkout signature with the key secret.
func (c *Client) VerifySignature(orderRef, paymentRef, signature string) bool {
	return gateway.VerifySignature(c.cfg.KeySecret, orderRef, paymentRef, signature)
}
