package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// MinimumAmount is the smallest chargeable amount in minor units.
const MinimumAmount int64 = 100

// IntentInput holds the parameters for creating a payment intent.
type IntentInput struct {
	Amount   int64 // minor units
	Currency string
	Receipt  string
}

// PaymentIntent is a remote order the client pays against.
type PaymentIntent struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// Gateway defines the interface for payment gateway integrations.
type Gateway interface {
	// Name returns the gateway name (e.g., "razorpay", "mock").
	Name() string

	// Configured reports whether credentials are present.
	Configured() bool

	// KeyID is the public key the client-side checkout needs.
	KeyID() string

	// CreateIntent creates a remote order for the given amount.
	CreateIntent(ctx context.Context, input IntentInput) (*PaymentIntent, error)

	// VerifySignature checks the signature returned by the checkout flow.
	VerifySignature(orderRef, paymentRef, signature string) bool
}

// ComputeSignature returns the hex HMAC-SHA256 of "orderRef|paymentRef".
func ComputeSignature(secret, orderRef, paymentRef string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderRef + "|" + paymentRef))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature compares signature against the expected value in
// constant time. An empty secret never verifies.
func VerifySignature(secret, orderRef, paymentRef, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	expected := ComputeSignature(secret, orderRef, paymentRef)
	return hmac.Equal([]byte(expected), []byte(signature))
}
