// Package mock provides an in-process payment gateway for development and
// tests.
package mock

import (
	"context"
	"fmt"
	"sync"

	apperrors "github.com/kitchencart/ecommerce/pkg/errors"
	"github.com/kitchencart/ecommerce/services/order/internal/gateway"
)

// Gateway creates intents locally and signs with Secret.
type Gateway struct {
	Key    string
	Secret string

	mu      sync.Mutex
	seq     int
	intents []gateway.IntentInput
	err     error
}

// New creates a configured mock gateway.
func New(key, secret string) *Gateway {
	return &Gateway{Key: key, Secret: secret}
}

// Name returns the gateway name.
func (g *Gateway) Name() string { return "mock" }

// Configured reports whether a key and secret are set.
func (g *Gateway) Configured() bool { return g.Key != "" && g.Secret != "" }

// KeyID returns the public key.
func (g *Gateway) KeyID() string { return g.Key }

// FailWith makes subsequent CreateIntent calls return err.
func (g *Gateway) FailWith(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.err = err
}

// CreateIntent returns sequential ids order_mock_1, order_mock_2, ...
func (g *Gateway) CreateIntent(_ context.Context, input gateway.IntentInput) (*gateway.PaymentIntent, error) {
	if !g.Configured() {
		return nil, apperrors.Configuration("mock gateway is not configured")
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.seq++
	g.intents = append(g.intents, input)
	return &gateway.PaymentIntent{
		ID:       fmt.Sprintf("order_mock_%d", g.seq),
		Amount:   input.Amount,
		Currency: input.Currency,
		Receipt:  input.Receipt,
		Status:   "created",
	}, nil
}

// Intents returns the inputs of every successful CreateIntent call.
func (g *Gateway) Intents() []gateway.IntentInput {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]gateway.IntentInput(nil), g.intents...)
}

// Sign returns the signature a real checkout would produce.
func (g *Gateway) Sign(orderRef, paymentRef string) string {
	return gateway.ComputeSignature(g.Secret, orderRef, paymentRef)
}

// VerifySignature checks signature with Secret.
func (g *Gateway) VerifySignature(orderRef, paymentRef, signature string) bool {
	return gateway.VerifySignature(g.Secret, orderRef, paymentRef, signature)
}
