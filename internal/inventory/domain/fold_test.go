package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cypherlabdev/ordersaga/internal/eventstore"
)

func TestRebuild_ReservedThenReleased(t *testing.T) {
	productID := uuid.New()
	orderID := uuid.New()
	now := time.Now().UTC()

	reserved, err := json.Marshal(InventoryReservedPayload{ProductID: productID, OrderID: orderID, Quantity: 3, Timestamp: now})
	require.NoError(t, err)
	released, err := json.Marshal(InventoryReleasedPayload{ProductID: productID, OrderID: orderID, Quantity: 3, Timestamp: now})
	require.NoError(t, err)

	records := []eventstore.Record{
		{EventType: EventInventoryReserved, Version: 1, EventData: reserved},
		{EventType: EventInventoryReleased, Version: 2, EventData: released},
	}

	inv, err := Rebuild(productID, records)
	require.NoError(t, err)
	assert.Equal(t, 0, inv.Reserved)
	assert.Equal(t, 2, inv.Version)
}

func TestRebuild_ReservationFailedDoesNotChangeReserved(t *testing.T) {
	productID := uuid.New()
	orderID := uuid.New()
	now := time.Now().UTC()

	failed, err := json.Marshal(InventoryReservationFailedPayload{
		ProductID: productID, OrderID: orderID, QuantityRequested: 5, QuantityAvailable: 2, Timestamp: now,
	})
	require.NoError(t, err)

	records := []eventstore.Record{
		{EventType: EventInventoryReservationFailed, Version: 1, EventData: failed},
	}

	inv, err := Rebuild(productID, records)
	require.NoError(t, err)
	assert.Equal(t, 0, inv.Reserved)
	assert.Equal(t, 1, inv.Version)
}
