package domain

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/cypherlabdev/ordersaga/internal/eventstore"
)

// Rebuild folds a version-ordered event history into an Inventory. Like
// the original's apply_event dispatch, InventoryReservationFailed has no
// handler: it is recorded but changes nothing on the aggregate.
func Rebuild(productID uuid.UUID, records []eventstore.Record) (Inventory, error) {
	inv := Inventory{ProductID: productID}
	for _, rec := range records {
		switch rec.EventType {
		case EventInventoryReserved:
			var p InventoryReservedPayload
			if err := json.Unmarshal(rec.EventData, &p); err != nil {
				return Inventory{}, fmt.Errorf("unmarshal InventoryReserved: %w", err)
			}
			inv.ApplyInventoryReserved(p)
		case EventInventoryReleased:
			var p InventoryReleasedPayload
			if err := json.Unmarshal(rec.EventData, &p); err != nil {
				return Inventory{}, fmt.Errorf("unmarshal InventoryReleased: %w", err)
			}
			inv.ApplyInventoryReleased(p)
		}
		inv.Version = rec.Version
	}
	return inv, nil
}
