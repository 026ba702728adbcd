package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cypherlabdev/ordersaga/internal/eventstore"
)

func marshal(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestRebuild_EmptyHistory(t *testing.T) {
	order, err := Rebuild(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, order.Version)
	assert.Equal(t, Status(""), order.Status)
}

func TestRebuild_CreatedThenConfirmed(t *testing.T) {
	orderID := uuid.New()
	productID := uuid.New()
	now := time.Now().UTC()

	records := []eventstore.Record{
		{
			EventType: EventOrderCreated,
			Version:   1,
			EventData: marshal(t, OrderCreatedPayload{
				OrderID:      orderID,
				CustomerName: "Ada Lovelace",
				ProductID:    productID,
				ProductName:  "Analytical Engine",
				Quantity:     2,
				TotalPrice:   decimal.NewFromInt(500),
				Timestamp:    now,
			}),
		},
		{
			EventType: EventOrderConfirmed,
			Version:   2,
			EventData: marshal(t, OrderConfirmedPayload{OrderID: orderID, Timestamp: now}),
		},
	}

	order, err := Rebuild(records)
	require.NoError(t, err)
	assert.Equal(t, orderID, order.ID)
	assert.Equal(t, StatusConfirmed, order.Status)
	assert.Equal(t, 2, order.Version)
	assert.Equal(t, "Ada Lovelace", order.CustomerName)
}

func TestRebuild_CreatedThenCancelled(t *testing.T) {
	orderID := uuid.New()
	now := time.Now().UTC()

	records := []eventstore.Record{
		{
			EventType: EventOrderCreated,
			Version:   1,
			EventData: marshal(t, OrderCreatedPayload{OrderID: orderID, Timestamp: now}),
		},
		{
			EventType: EventOrderCancelled,
			Version:   2,
			EventData: marshal(t, OrderCancelledPayload{OrderID: orderID, Reason: "insufficient stock", Timestamp: now}),
		},
	}

	order, err := Rebuild(records)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, order.Status)
	assert.Equal(t, 2, order.Version)
}
