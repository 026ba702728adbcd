// Package service is the inventory authority's command layer:
// ReserveInventory and ReleaseInventory, exactly as spec.md §4.3
// describes, including the no-op-on-insufficient-stock branch.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/ordersaga/internal/apperrors"
	"github.com/cypherlabdev/ordersaga/internal/bus"
	"github.com/cypherlabdev/ordersaga/internal/eventstore"
	"github.com/cypherlabdev/ordersaga/internal/inventory/domain"
	"github.com/cypherlabdev/ordersaga/internal/inventory/repository"
	"github.com/cypherlabdev/ordersaga/internal/observability"
)

const inventoryEventsChannel = "inventory_events"

type dbPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// ReserveRequest is the body of POST /commands/inventory/{id}/reserve.
type ReserveRequest struct {
	OrderID  uuid.UUID `json:"order_id" validate:"required"`
	Quantity int       `json:"quantity" validate:"required,gt=0"`
}

// ReleaseRequest is the body of POST /commands/inventory/{id}/release.
type ReleaseRequest struct {
	OrderID  uuid.UUID `json:"order_id" validate:"required"`
	Quantity int       `json:"quantity" validate:"required,gt=0"`
}

// ReserveResult mirrors the original's {"success": bool, "reason"?: string}.
type ReserveResult struct {
	Success bool   `json:"success"`
	Reason  string `json:"reason,omitempty"`
}

// Service is the inventory authority's command handler.
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
		logger:    logger.With().Str("component", "inventory_service").Logger(),
	}
}

// ReserveInventory reads the current stock row, and either appends
// InventoryReservationFailed (no reserved change, returns success:false
// with a reason) or appends InventoryReserved and bumps reserved.
// Either way the branch's writes (the event alone on failure, the event
// plus the read-model update on success) commit in one transaction,
// then the event is published.
func (s *Service) ReserveInventory(ctx context.Context, productID uuid.UUID, req ReserveRequest) (ReserveResult, error) {
	row, err := s.repo.GetByID(ctx, productID)
	if err != nil {
		return ReserveResult{}, err
	}

	now := time.Now().UTC()
	records, err := s.store.Load(ctx, productID)
	if err != nil {
		return ReserveResult{}, err
	}
	inv, err := domain.Rebuild(productID, records)
	if err != nil {
		return ReserveResult{}, err
	}

	available := row.Available()
	if available < req.Quantity {
		payload := domain.InventoryReservationFailedPayload{
			ProductID:         productID,
			OrderID:           req.OrderID,
			QuantityRequested: req.Quantity,
			QuantityAvailable: available,
			Timestamp:         now,
		}

		tx, err := s.pool.Begin(ctx)
		if err != nil {
			return ReserveResult{}, fmt.Errorf("begin tx: %w: %w", apperrors.ErrStorage, err)
		}
		defer tx.Rollback(ctx)

		if _, err := s.store.Append(ctx, tx, productID, "Inventory", domain.EventInventoryReservationFailed, payload, inv.Version); err != nil {
			return ReserveResult{}, err
		}
		if err := tx.Commit(ctx); err != nil {
			return ReserveResult{}, fmt.Errorf("commit tx: %w: %w", apperrors.ErrStorage, err)
		}

		if s.metrics != nil {
			s.metrics.EventsAppended.WithLabelValues("Inventory", domain.EventInventoryReservationFailed).Inc()
			s.metrics.ReservationsFailed.Inc()
		}

		if err := s.publisher.Publish(ctx, inventoryEventsChannel, domain.EventInventoryReservationFailed, payload); err != nil {
			s.logger.Error().Err(err).Str("product_id", productID.String()).Msg("publish InventoryReservationFailed failed after commit")
		}

		reason := fmt.Sprintf("Insufficient stock: requested=%d, available=%d", req.Quantity, available)
		return ReserveResult{Success: false, Reason: reason}, fmt.Errorf("%s: %w", reason, apperrors.ErrBusinessReject)
	}

	payload := domain.InventoryReservedPayload{
		ProductID: productID,
		OrderID:   req.OrderID,
		Quantity:  req.Quantity,
		Timestamp: now,
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return ReserveResult{}, fmt.Errorf("begin tx: %w: %w", apperrors.ErrStorage, err)
	}
	defer tx.Rollback(ctx)

	if _, err := s.store.Append(ctx, tx, productID, "Inventory", domain.EventInventoryReserved, payload, inv.Version); err != nil {
		return ReserveResult{}, err
	}
	if err := s.repo.IncrementReserved(ctx, tx, productID, req.Quantity, now); err != nil {
		return ReserveResult{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return ReserveResult{}, fmt.Errorf("commit tx: %w: %w", apperrors.ErrStorage, err)
	}

	if s.metrics != nil {
		s.metrics.EventsAppended.WithLabelValues("Inventory", domain.EventInventoryReserved).Inc()
		s.metrics.ReservationsSucceeded.Inc()
	}

	if err := s.publisher.Publish(ctx, inventoryEventsChannel, domain.EventInventoryReserved, payload); err != nil {
		s.logger.Error().Err(err).Str("product_id", productID.String()).Msg("publish InventoryReserved failed after commit")
	}

	return ReserveResult{Success: true}, nil
}

// ReleaseInventory appends InventoryReleased and decrements reserved.
// No validation that a matching reservation exists; compensations
// assume the caller is honest (spec.md §4.3).
func (s *Service) ReleaseInventory(ctx context.Context, productID uuid.UUID, req ReleaseRequest) (ReserveResult, error) {
	now := time.Now().UTC()
	records, err := s.store.Load(ctx, productID)
	if err != nil {
		return ReserveResult{}, err
	}
	inv, err := domain.Rebuild(productID, records)
	if err != nil {
		return ReserveResult{}, err
	}

	payload := domain.InventoryReleasedPayload{
		ProductID: productID,
		OrderID:   req.OrderID,
		Quantity:  req.Quantity,
		Timestamp: now,
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return ReserveResult{}, fmt.Errorf("begin tx: %w: %w", apperrors.ErrStorage, err)
	}
	defer tx.Rollback(ctx)

	if _, err := s.store.Append(ctx, tx, productID, "Inventory", domain.EventInventoryReleased, payload, inv.Version); err != nil {
		return ReserveResult{}, err
	}
	if err := s.repo.IncrementReserved(ctx, tx, productID, -req.Quantity, now); err != nil {
		return ReserveResult{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return ReserveResult{}, fmt.Errorf("commit tx: %w: %w", apperrors.ErrStorage, err)
	}

	if s.metrics != nil {
		s.metrics.EventsAppended.WithLabelValues("Inventory", domain.EventInventoryReleased).Inc()
		s.metrics.ReleasesTotal.Inc()
	}

	if err := s.publisher.Publish(ctx, inventoryEventsChannel, domain.EventInventoryReleased, payload); err != nil {
		s.logger.Error().Err(err).Str("product_id", productID.String()).Msg("publish InventoryReleased failed after commit")
	}

	return ReserveResult{Success: true}, nil
}
