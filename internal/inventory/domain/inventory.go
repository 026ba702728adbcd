// Package domain is the inventory aggregate: quantity and reserved
// counts rebuilt by replaying event_store rows, grounded on the
// original inventory service's InventoryAggregate.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Inventory is the per-product inventory aggregate.
type Inventory struct {
	ProductID uuid.UUID
	Quantity  int
	Reserved  int
	Version   int
}

// Available is quantity minus reserved (I3: 0 <= reserved <= quantity).
func (i Inventory) Available() int {
	return i.Quantity - i.Reserved
}

const (
	EventInventoryReserved         = "InventoryReserved"
	EventInventoryReservationFailed = "InventoryReservationFailed"
	EventInventoryReleased         = "InventoryReleased"
)

// InventoryReservedPayload is recorded when a reservation succeeds.
type InventoryReservedPayload struct {
	ProductID uuid.UUID `json:"product_id"`
	OrderID   uuid.UUID `json:"order_id"`
	Quantity  int       `json:"quantity"`
	Timestamp time.Time `json:"timestamp"`
}

// InventoryReservationFailedPayload is recorded when stock is insufficient.
type InventoryReservationFailedPayload struct {
	ProductID         uuid.UUID `json:"product_id"`
	OrderID           uuid.UUID `json:"order_id"`
	QuantityRequested int       `json:"quantity_requested"`
	QuantityAvailable int       `json:"quantity_available"`
	Timestamp         time.Time `json:"timestamp"`
}

// InventoryReleasedPayload is recorded when a reservation is compensated.
type InventoryReleasedPayload struct {
	ProductID uuid.UUID `json:"product_id"`
	OrderID   uuid.UUID `json:"order_id"`
	Quantity  int       `json:"quantity"`
	Timestamp time.Time `json:"timestamp"`
}

// ApplyInventoryReserved increments reserved stock.
func (i *Inventory) ApplyInventoryReserved(p InventoryReservedPayload) {
	i.Reserved += p.Quantity
}

// ApplyInventoryReleased decrements reserved stock, no validation that a
// matching reservation exists — compensations assume the caller is honest.
func (i *Inventory) ApplyInventoryReleased(p InventoryReleasedPayload) {
	i.Reserved -= p.Quantity
}
