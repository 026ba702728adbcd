package bus

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelope_RoundTrip(t *testing.T) {
	type orderCreated struct {
		OrderID string `json:"order_id"`
	}

	data, err := json.Marshal(orderCreated{OrderID: "abc-123"})
	require.NoError(t, err)

	envelope := Envelope{EventType: "OrderCreated", Data: data}
	body, err := json.Marshal(envelope)
	require.NoError(t, err)

	var decoded Envelope
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "OrderCreated", decoded.EventType)

	var payload orderCreated
	require.NoError(t, json.Unmarshal(decoded.Data, &payload))
	assert.Equal(t, "abc-123", payload.OrderID)
}
