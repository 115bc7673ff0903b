package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders created, by payment method.",
	}, []string{"method"})

	paymentVerifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_verifications_total",
		Help: "Payment verification attempts, by outcome.",
	}, []string{"outcome"})

	orderTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_transitions_total",
		Help: "Applied order status transitions.",
	}, []string{"from", "to"})
)

// Verification outcomes.
const (
	outcomeVerified          = "verified"
	outcomeDuplicate         = "duplicate"
	outcomeSignatureMismatch = "signature_mismatch"
	outcomeRefMismatch       = "reference_mismatch"
)
