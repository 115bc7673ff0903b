package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kitchencart/ecommerce/pkg/logger"
)

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestProducer_Publish_KeysByAggregateAndSetsHeaders(t *testing.T) {
	w := &recordingWriter{}
	p := newProducerWithWriter(w, logger.Discard())

	ev, err := NewEvent("order.created", "ord-42", "order", "order-service", map[string]string{"a": "b"})
	require.NoError(t, err)
	ev.WithCorrelationID("corr-1")

	require.NoError(t, p.Publish(context.Background(), "ecommerce.order.created", ev))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "ecommerce.order.created", msg.Topic)
	assert.Equal(t, "ord-42", string(msg.Key))
	assert.Equal(t, "order.created", header(msg, "event_type"))
	assert.Equal(t, "corr-1", header(msg, "correlation_id"))
}

func TestProducer_Publish_InjectsTraceContext(t *testing.T) {
	prevProp := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prevProp) })

	tp := sdktrace.NewTracerProvider()
	ctx, span := tp.Tracer("test").Start(context.Background(), "publish")
	defer span.End()

	w := &recordingWriter{}
	p := newProducerWithWriter(w, logger.Discard())
	ev, err := NewEvent("order.paid", "ord-1", "order", "order-service", nil)
	require.NoError(t, err)

	require.NoError(t, p.Publish(ctx, "ecommerce.order.paid", ev))
	assert.Contains(t, header(w.msgs[0], "traceparent"), span.SpanContext().TraceID().String())
}

func TestProducer_Publish_WrapsWriterError(t *testing.T) {
	p := newProducerWithWriter(&recordingWriter{err: errors.New("broker down")}, logger.Discard())
	ev, err := NewEvent("order.paid", "ord-1", "order", "order-service", nil)
	require.NoError(t, err)

	err = p.Publish(context.Background(), "ecommerce.order.paid", ev)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

func TestHeaderCarrier_SetOverwrites(t *testing.T) {
	headers := []kafka.Header{{Key: "a", Value: []byte("1")}}
	c := NewHeaderCarrier(&headers)

	c.Set("a", "2")
	c.Set("b", "3")

	assert.Equal(t, "2", c.Get("a"))
	assert.Equal(t, "3", c.Get("b"))
	assert.ElementsMatch(t, []string{"a", "b"}, c.Keys())
	assert.Empty(t, c.Get("missing"))
}

func TestPingBrokers_NoBrokers(t *testing.T) {
	assert.Error(t, PingBrokers(context.Background(), nil))
}
