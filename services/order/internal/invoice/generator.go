package invoice

import (
	"context"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kitchencart/ecommerce/pkg/tracing"
	"github.com/kitchencart/ecommerce/services/order/internal/domain"
)

var invoicesRendered = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "invoices_rendered_total",
	Help: "Invoice PDFs rendered, by trigger.",
}, []string{"trigger"})

// File identifies a stored invoice.
type File struct {
	Name string
	Path string
}

// Generator renders invoices on demand and caches them in a FileStore.
type Generator struct {
	renderer *Renderer
	store    *FileStore
	logger   *slog.Logger
}

// NewGenerator creates a Generator.
func NewGenerator(renderer *Renderer, store *FileStore, logger *slog.Logger) *Generator {
	return &Generator{renderer: renderer, store: store, logger: logger}
}

// Ensure returns the stored invoice for o, rendering it only if absent.
func (g *Generator) Ensure(ctx context.Context, o *domain.Order) (*File, error) {
	exists, err := g.store.Exists(o.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		path, err := g.store.Path(o.ID)
		if err != nil {
			return nil, err
		}
		return &File{Name: FileName(o.ID), Path: path}, nil
	}
	return g.generate(ctx, o, "on_demand")
}

// Regenerate renders o and replaces any stored invoice.
func (g *Generator) Regenerate(ctx context.Context, o *domain.Order) (*File, error) {
	return g.generate(ctx, o, "payment_verified")
}

func (g *Generator) generate(ctx context.Context, o *domain.Order, trigger string) (_ *File, err error) {
	_, end := tracing.Start(ctx, "invoice", "invoice.render",
		attribute.String("order_id", o.ID),
		attribute.String("trigger", trigger),
	)
	defer func() { end(err) }()

	path, err := g.store.Write(o.ID, func(w io.Writer) error {
		return g.renderer.Render(o, w)
	})
	if err != nil {
		return nil, err
	}

	invoicesRendered.WithLabelValues(trigger).Inc()
	g.logger.InfoContext(ctx, "invoice generated",
		slog.String("order_id", o.ID),
		slog.String("trigger", trigger),
	)
	return &File{Name: FileName(o.ID), Path: path}, nil
}
