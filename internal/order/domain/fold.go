package domain

import (
	"encoding/json"
	"fmt"

	"github.com/cypherlabdev/ordersaga/internal/eventstore"
)

// Rebuild folds a version-ordered event history into an Order, the Go
// equivalent of OrderAggregate.from_events. Returns a zero Order with
// Version 0 for an empty history, meaning "no such aggregate yet".
func Rebuild(records []eventstore.Record) (Order, error) {
	var order Order
	for _, rec := range records {
		if err := apply(&order, rec); err != nil {
			return Order{}, err
		}
		order.Version = rec.Version
	}
	return order, nil
}

func apply(o *Order, rec eventstore.Record) error {
	switch rec.EventType {
	case EventOrderCreated:
		var p OrderCreatedPayload
		if err := json.Unmarshal(rec.EventData, &p); err != nil {
			return fmt.Errorf("unmarshal OrderCreated: %w", err)
		}
		o.ApplyOrderCreated(p)
	case EventOrderConfirmed:
		var p OrderConfirmedPayload
		if err := json.Unmarshal(rec.EventData, &p); err != nil {
			return fmt.Errorf("unmarshal OrderConfirmed: %w", err)
		}
		o.ApplyOrderConfirmed(p)
	case EventOrderCancelled:
		var p OrderCancelledPayload
		if err := json.Unmarshal(rec.EventData, &p); err != nil {
			return fmt.Errorf("unmarshal OrderCancelled: %w", err)
		}
		o.ApplyOrderCancelled(p)
	}
	// unknown event types are ignored, matching apply_event's handler.get() no-op
	return nil
}
