package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func installRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return rec
}

func TestInitTracer_DisabledIsNoop(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), DefaultConfig("order"))
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSamplerFor(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), samplerFor(1).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), samplerFor(0).Description())
	assert.Contains(t, samplerFor(0.5).Description(), "TraceIDRatioBased")
}

func TestStart_RecordsSpan(t *testing.T) {
	rec := installRecorder(t)

	_, end := Start(context.Background(), "stock", "stock.decrement", attribute.String("product_id", "p-1"))
	end(nil)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "stock.decrement", spans[0].Name())
	assert.Equal(t, InstrumentationPrefix+"/stock", spans[0].InstrumentationScope().Name)
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
}

func TestStart_RecordsError(t *testing.T) {
	rec := installRecorder(t)

	_, end := Start(context.Background(), "invoice", "invoice.render")
	end(errors.New("disk full"))

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "disk full", spans[0].Status().Description)
}
