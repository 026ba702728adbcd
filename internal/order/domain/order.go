// Package domain is the order aggregate: state rebuilt by replaying
// its event_store rows, not read from a snapshot table. Grounded on the
// original order service's OrderAggregate (event_store.py/aggregate.py).
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the order's lifecycle state.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
)

// Order is the order aggregate. Every field is derived by folding the
// aggregate's event history in version order: Version is set by Rebuild
// from the last folded record, every other field by one of the Apply*
// methods below.
type Order struct {
	ID           uuid.UUID
	CustomerName string
	ProductID    uuid.UUID
	ProductName  string
	Quantity     int
	TotalPrice   decimal.Decimal
	Status       Status
	Version      int
}

// OrderCreatedPayload is the event_data recorded for an OrderCreated event.
type OrderCreatedPayload struct {
	OrderID      uuid.UUID       `json:"order_id"`
	CustomerName string          `json:"customer_name"`
	ProductID    uuid.UUID       `json:"product_id"`
	ProductName  string          `json:"product_name"`
	Quantity     int             `json:"quantity"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	Timestamp    time.Time       `json:"timestamp"`
}

// OrderConfirmedPayload is the event_data recorded for an OrderConfirmed event.
type OrderConfirmedPayload struct {
	OrderID   uuid.UUID `json:"order_id"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderCancelledPayload is the event_data recorded for an OrderCancelled event.
type OrderCancelledPayload struct {
	OrderID   uuid.UUID `json:"order_id"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	EventOrderCreated   = "OrderCreated"
	EventOrderConfirmed = "OrderConfirmed"
	EventOrderCancelled = "OrderCancelled"
)

// ApplyOrderCreated transitions a zero-value Order into PENDING.
func (o *Order) ApplyOrderCreated(p OrderCreatedPayload) {
	o.ID = p.OrderID
	o.CustomerName = p.CustomerName
	o.ProductID = p.ProductID
	o.ProductName = p.ProductName
	o.Quantity = p.Quantity
	o.TotalPrice = p.TotalPrice
	o.Status = StatusPending
}

// ApplyOrderConfirmed transitions an order to CONFIRMED.
func (o *Order) ApplyOrderConfirmed(OrderConfirmedPayload) {
	o.Status = StatusConfirmed
}

// ApplyOrderCancelled transitions an order to CANCELLED.
func (o *Order) ApplyOrderCancelled(OrderCancelledPayload) {
	o.Status = StatusCancelled
}
