// Package stock applies order quantities to product stock counters.
package stock

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kitchencart/ecommerce/pkg/tracing"
	"github.com/kitchencart/ecommerce/services/order/internal/domain"
)

// Direction says whether stock is taken or returned.
type Direction string

const (
	Decrement Direction = "decrement"
	Increment Direction = "increment"
)

var adjustments = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "stock_adjustments_total",
	Help: "Per-product stock adjustments, by direction and result.",
}, []string{"direction", "result"})

// Store is the subset of the product repository the ledger needs. Both
// methods report whether the product exists.
type Store interface {
	DecrementStock(ctx context.Context, productID string, qty int) (bool, error)
	IncrementStock(ctx context.Context, productID string, qty int) (bool, error)
}

// Ledger adjusts stock for every item of an order.
type Ledger struct {
	logger *slog.Logger
}

// NewLedger creates a Ledger.
func NewLedger(logger *slog.Logger) *Ledger {
	return &Ledger{logger: logger}
}

// Apply adjusts stock in store for items in order. Products that no longer
// exist are skipped. It stops at the first storage error without undoing
// earlier items, so store should be bound to the transaction that also
// records the order change.
func (l *Ledger) Apply(ctx context.Context, store Store, items []domain.OrderItem, dir Direction) error {
	for _, it := range items {
		if it.Quantity <= 0 {
			continue
		}
		if err := l.adjust(ctx, store, it, dir); err != nil {
			return err
		}
	}
	return nil
}

func (l *Ledger) adjust(ctx context.Context, store Store, it domain.OrderItem, dir Direction) (err error) {
	ctx, end := tracing.Start(ctx, "stock", "stock."+string(dir),
		attribute.String("product_id", it.ProductID),
		attribute.Int("quantity", it.Quantity),
	)
	defer func() { end(err) }()

	var found bool
	switch dir {
	case Decrement:
		found, err = store.DecrementStock(ctx, it.ProductID, it.Quantity)
	case Increment:
		found, err = store.IncrementStock(ctx, it.ProductID, it.Quantity)
	default:
		return fmt.Errorf("unknown stock direction %q", dir)
	}
	if err != nil {
		adjustments.WithLabelValues(string(dir), "error").Inc()
		return fmt.Errorf("%s stock for product %s: %w", dir, it.ProductID, err)
	}
	if !found {
		adjustments.WithLabelValues(string(dir), "missing").Inc()
		l.logger.DebugContext(ctx, "stock adjustment skipped for missing product",
			slog.String("product_id", it.ProductID),
			slog.String("direction", string(dir)),
		)
		return nil
	}
	adjustments.WithLabelValues(string(dir), "ok").Inc()
	return nil
}
