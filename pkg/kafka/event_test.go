package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopic(t *testing.T) {
	assert.Equal(t, "ecommerce.order.paid", Topic("order", "paid"))
	assert.Equal(t, "ecommerce.dlq.ecommerce.order.paid", DLQTopic(Topic("order", "paid")))
}

func TestNewEvent_RoundTripsPayload(t *testing.T) {
	type payload struct {
		OrderID string `json:"order_id"`
		Amount  int64  `json:"amount"`
	}

	ev, err := NewEvent("order.paid", "ord-1", "order", "order-service", payload{"ord-1", 12500})
	require.NoError(t, err)
	ev.WithCorrelationID("corr-9").WithMetadata("attempt", "1")

	raw, err := ev.Marshal()
	require.NoError(t, err)

	decoded, err := UnmarshalEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, ev.EventID, decoded.EventID)
	assert.Equal(t, "corr-9", decoded.CorrelationID)
	assert.Equal(t, 1, decoded.Version)

	var got payload
	require.NoError(t, decoded.UnmarshalData(&got))
	assert.Equal(t, int64(12500), got.Amount)
}

func TestUnmarshalEvent_RejectsMissingType(t *testing.T) {
	_, err := UnmarshalEvent([]byte(`{"event_id":"x"}`))
	assert.Error(t, err)

	_, err = UnmarshalEvent([]byte(`not json`))
	assert.Error(t, err)
}
