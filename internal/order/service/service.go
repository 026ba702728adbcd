// Package service is the order authority's command layer: CreateOrder,
// ConfirmOrder, CancelOrder, each one database transaction covering the
// event append and the read-model write, each publishing to order_events
// strictly after commit (spec.md §4.2).
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cypherlabdev/ordersaga/internal/apperrors"
	"github.com/cypherlabdev/ordersaga/internal/bus"
	"github.com/cypherlabdev/ordersaga/internal/eventstore"
	"github.com/cypherlabdev/ordersaga/internal/observability"
	"github.com/cypherlabdev/ordersaga/internal/order/domain"
	"github.com/cypherlabdev/ordersaga/internal/order/repository"
)

const orderEventsChannel = "order_events"

// dbPool is the subset of *pgxpool.Pool this service needs. Narrowing to
// an interface lets tests substitute pgxmock.NewPool().
type dbPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// CreateOrderRequest is the body of POST /commands/orders.
type CreateOrderRequest struct {
	OrderID      uuid.UUID       `json:"order_id" validate:"required"`
	CustomerName string          `json:"customer_name" validate:"required"`
	ProductID    uuid.UUID       `json:"product_id" validate:"required"`
	ProductName  string          `json:"product_name" validate:"required"`
	Quantity     int             `json:"quantity" validate:"required,gt=0"`
	TotalPrice   decimal.Decimal `json:"total_price" validate:"required"`
}

// CancelOrderRequest is the body of POST /commands/orders/{id}/cancel.
type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

// Result is returned by every command: the order's id, its resulting
// status, and (for CreateOrder) the version the event store assigned.
type Result struct {
	OrderID uuid.UUID     `json:"order_id"`
	Status  domain.Status `json:"status"`
	Version int           `json:"version,omitempty"`
}

// Service is the order authority's command handler.
type Service struct {
	pool      dbPool
	store     *eventstore.Store
	repo      *repository.Repository
	publisher *bus.Publisher
	metrics   *observability.Metrics
	logger    zerolog.Logger
}

// New builds a Service.
func New(pool dbPool, store *eventstore.Store, repo *repository.Repository, publisher *bus.Publisher, metrics *observability.Metrics, logger zerolog.Logger) *Service {
	return &Service{
		pool:      pool,
		store:     store,
		repo:      repo,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger.With().Str("component", "order_service").Logger(),
	}
}

// CreateOrder appends OrderCreated at expected_version=0, inserts the
// read-model row in PENDING, commits both in one transaction, then
// publishes OrderCreated.
func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest) (Result, error) {
	now := time.Now().UTC()
	payload := domain.OrderCreatedPayload{
		OrderID:      req.OrderID,
		CustomerName: req.CustomerName,
		ProductID:    req.ProductID,
		ProductName:  req.ProductName,
		Quantity:     req.Quantity,
		TotalPrice:   req.TotalPrice,
		Timestamp:    now,
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("begin tx: %w: %w", apperrors.ErrStorage, err)
	}
	defer tx.Rollback(ctx)

	version, err := s.store.Append(ctx, tx, req.OrderID, "Order", domain.EventOrderCreated, payload, 0)
	if err != nil {
		return Result{}, err
	}

	if err := s.repo.Insert(ctx, tx, repository.Row{
		ID:           req.OrderID,
		CustomerName: req.CustomerName,
		ProductID:    req.ProductID,
		ProductName:  req.ProductName,
		Quantity:     req.Quantity,
		TotalPrice:   req.TotalPrice,
		CreatedAt:    now,
	}); err != nil {
		return Result{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Result{}, fmt.Errorf("commit tx: %w: %w", apperrors.ErrStorage, err)
	}

	if s.metrics != nil {
		s.metrics.EventsAppended.WithLabelValues("Order", domain.EventOrderCreated).Inc()
		s.metrics.OrdersCreated.Inc()
	}

	if err := s.publisher.Publish(ctx, orderEventsChannel, domain.EventOrderCreated, payload); err != nil {
		s.logger.Error().Err(err).Str("order_id", req.OrderID.String()).Msg("publish OrderCreated failed after commit")
	}

	return Result{OrderID: req.OrderID, Status: domain.StatusPending, Version: version}, nil
}

// ConfirmOrder loads the order's events, appends OrderConfirmed at the
// aggregate's current version, updates the read model, commits, and
// publishes. Idempotency is not provided here; the caller (the saga)
// guarantees single-shot invocation.
func (s *Service) ConfirmOrder(ctx context.Context, orderID uuid.UUID) (Result, error) {
	return s.transition(ctx, orderID, domain.EventOrderConfirmed, domain.OrderConfirmedPayload{OrderID: orderID, Timestamp: time.Now().UTC()}, domain.StatusConfirmed)
}

// CancelOrder is analogous to ConfirmOrder, producing OrderCancelled.
func (s *Service) CancelOrder(ctx context.Context, orderID uuid.UUID, reason string) (Result, error) {
	return s.transition(ctx, orderID, domain.EventOrderCancelled, domain.OrderCancelledPayload{OrderID: orderID, Reason: reason, Timestamp: time.Now().UTC()}, domain.StatusCancelled)
}

func (s *Service) transition(ctx context.Context, orderID uuid.UUID, eventType string, payload interface{}, newStatus domain.Status) (Result, error) {
	records, err := s.store.Load(ctx, orderID)
	if err != nil {
		return Result{}, err
	}
	order, err := domain.Rebuild(records)
	if err != nil {
		return Result{}, err
	}
	if order.Version == 0 {
		return Result{}, apperrors.ErrNotFound
	}

	now := time.Now().UTC()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("begin tx: %w: %w", apperrors.ErrStorage, err)
	}
	defer tx.Rollback(ctx)

	version, err := s.store.Append(ctx, tx, orderID, "Order", eventType, payload, order.Version)
	if err != nil {
		return Result{}, err
	}

	if err := s.repo.UpdateStatus(ctx, tx, orderID, newStatus, now); err != nil {
		return Result{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Result{}, fmt.Errorf("commit tx: %w: %w", apperrors.ErrStorage, err)
	}

	if s.metrics != nil {
		s.metrics.EventsAppended.WithLabelValues("Order", eventType).Inc()
		if newStatus == domain.StatusConfirmed {
			s.metrics.OrdersConfirmed.Inc()
		} else if newStatus == domain.StatusCancelled {
			s.metrics.OrdersCancelled.WithLabelValues("saga_compensation").Inc()
		}
	}

	if err := s.publisher.Publish(ctx, orderEventsChannel, eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Str("event_type", eventType).Msg("publish failed after commit")
	}

	return Result{OrderID: orderID, Status: newStatus, Version: version}, nil
}
