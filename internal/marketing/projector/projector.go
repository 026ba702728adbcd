// Package projector drives the marketing read model from the
// order_events bus: one database transaction per message, errors
// logged and swallowed so a single bad event never wedges the
// subscription loop. Grounded on
// original_source/services/marketing/app/subscriber.py.
package projector

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/ordersaga/internal/bus"
	orderdomain "github.com/cypherlabdev/ordersaga/internal/order/domain"
	"github.com/cypherlabdev/ordersaga/internal/marketing/domain"
	"github.com/cypherlabdev/ordersaga/internal/marketing/repository"
	"github.com/cypherlabdev/ordersaga/internal/observability"
)

const orderEventsChannel = "order_events"

// dbPool is the subset of *pgxpool.Pool the projector needs, narrowed
// so tests can substitute pgxmock.NewPool().
type dbPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Projector subscribes to order_events and projects each into the
// marketing read model.
type Projector struct {
	pool       dbPool
	subscriber *bus.Subscriber
	metrics    *observability.Metrics
	logger     zerolog.Logger
}

// New builds a Projector.
func New(pool *pgxpool.Pool, subscriber *bus.Subscriber, metrics *observability.Metrics, logger zerolog.Logger) *Projector {
	return &Projector{
		pool:       pool,
		subscriber: subscriber,
		metrics:    metrics,
		logger:     logger.With().Str("component", "marketing_projector").Logger(),
	}
}

// Run blocks, dispatching order_events messages until ctx is cancelled.
func (p *Projector) Run(ctx context.Context) error {
	return p.subscriber.Run(ctx, orderEventsChannel, p.handle)
}

// handle projects one event inside its own transaction. Any failure is
// logged and the event is dropped: the bus offers no redelivery, so
// retrying here would only delay the next message.
func (p *Projector) handle(ctx context.Context, envelope bus.Envelope) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		p.recordError(envelope.EventType, "begin")
		return fmt.Errorf("begin marketing projection tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := p.project(ctx, tx, envelope); err != nil {
		p.recordError(envelope.EventType, "project")
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		p.recordError(envelope.EventType, "commit")
		return fmt.Errorf("commit marketing projection tx: %w", err)
	}

	if p.metrics != nil {
		p.metrics.ProjectedEventsTotal.WithLabelValues(envelope.EventType).Inc()
	}
	return nil
}

func (p *Projector) recordError(eventType, reason string) {
	if p.metrics != nil {
		p.metrics.ProjectionErrors.WithLabelValues(eventType, reason).Inc()
	}
}

func (p *Projector) project(ctx context.Context, tx pgx.Tx, envelope bus.Envelope) error {
	switch envelope.EventType {
	case orderdomain.EventOrderCreated:
		var payload orderdomain.OrderCreatedPayload
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return fmt.Errorf("decode OrderCreated payload: %w", err)
		}
		return p.projectOrderCreated(ctx, tx, payload)
	case orderdomain.EventOrderConfirmed:
		var payload orderdomain.OrderConfirmedPayload
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return fmt.Errorf("decode OrderConfirmed payload: %w", err)
		}
		return p.projectOrderConfirmed(ctx, tx, payload)
	case orderdomain.EventOrderCancelled:
		var payload orderdomain.OrderCancelledPayload
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return fmt.Errorf("decode OrderCancelled payload: %w", err)
		}
		return p.projectOrderCancelled(ctx, tx, payload)
	}
	// Unknown event type: ignored, same as the Python dispatch dict's .get() miss.
	return nil
}

func (p *Projector) projectOrderCreated(ctx context.Context, tx pgx.Tx, e orderdomain.OrderCreatedPayload) error {
	orderDate := time.Date(e.Timestamp.Year(), e.Timestamp.Month(), e.Timestamp.Day(), 0, 0, 0, 0, time.UTC)

	if err := repository.InsertSnapshot(ctx, tx, domain.OrderSnapshot{
		OrderID:      e.OrderID,
		CustomerName: e.CustomerName,
		ProductID:    e.ProductID,
		ProductName:  e.ProductName,
		Quantity:     e.Quantity,
		TotalPrice:   e.TotalPrice,
		OrderDate:    orderDate,
		CreatedAt:    e.Timestamp,
	}); err != nil {
		return err
	}
	if err := repository.UpsertCustomerOrderPlaced(ctx, tx, e.CustomerName, e.TotalPrice, e.Timestamp); err != nil {
		return err
	}
	if err := repository.UpsertProductOrderPlaced(ctx, tx, e.ProductID, e.ProductName, e.Quantity, e.TotalPrice, e.CustomerName, e.Timestamp); err != nil {
		return err
	}
	return repository.UpsertDailyOrderPlaced(ctx, tx, orderDate, e.TotalPrice, e.Timestamp)
}

func (p *Projector) projectOrderConfirmed(ctx context.Context, tx pgx.Tx, e orderdomain.OrderConfirmedPayload) error {
	snapshot, err := repository.GetSnapshot(ctx, tx, e.OrderID)
	if err != nil {
		// No snapshot means the OrderCreated event was never observed
		// (dropped by the at-most-once bus, or projector was down).
		// Silently skipping matches the Python original's "if not order: return".
		return nil
	}

	if err := repository.UpdateSnapshotStatus(ctx, tx, e.OrderID, domain.SnapshotConfirmed, e.Timestamp); err != nil {
		return err
	}
	if err := repository.IncrementCustomerConfirmed(ctx, tx, snapshot.CustomerName, e.Timestamp); err != nil {
		return err
	}
	if err := repository.IncrementProductConfirmed(ctx, tx, snapshot.ProductID, snapshot.Quantity, e.Timestamp); err != nil {
		return err
	}
	return repository.IncrementDailyConfirmed(ctx, tx, snapshot.OrderDate, e.Timestamp)
}

func (p *Projector) projectOrderCancelled(ctx context.Context, tx pgx.Tx, e orderdomain.OrderCancelledPayload) error {
	snapshot, err := repository.GetSnapshot(ctx, tx, e.OrderID)
	if err != nil {
		return nil
	}

	if err := repository.UpdateSnapshotStatus(ctx, tx, e.OrderID, domain.SnapshotCancelled, e.Timestamp); err != nil {
		return err
	}
	if err := repository.IncrementCustomerCancelled(ctx, tx, snapshot.CustomerName, e.Timestamp); err != nil {
		return err
	}
	return repository.IncrementDailyCancelled(ctx, tx, snapshot.OrderDate, e.Timestamp)
}
