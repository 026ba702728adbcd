// Package eventstore is the append-only event log each authority
// (order, inventory) owns. Concurrency is enforced the same way the
// teacher's order repository enforces idempotency: a unique constraint
// drives a Postgres 23505 error, which the store turns into
// apperrors.ErrConcurrencyConflict instead of a raw driver error.
package eventstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/ordersaga/internal/apperrors"
)

// Record is one row of an aggregate's event log.
type Record struct {
	AggregateID   uuid.UUID
	AggregateType string
	EventType     string
	EventData     json.RawMessage
	Version       int
	CreatedAt     time.Time
}

// querier is the subset of *pgxpool.Pool this store needs for reads.
// Narrowing to an interface lets tests substitute pgxmock.NewPool().
type querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// Store wraps a Postgres pool holding one authority's event_store table.
// Each authority (order, inventory) runs its own Store against its own
// database, per the spec's database-per-service rule.
type Store struct {
	pool   querier
	logger zerolog.Logger
}

// New creates an event store over pool, logging under "component":"eventstore".
func New(pool *pgxpool.Pool, logger zerolog.Logger) *Store {
	return &Store{
		pool:   pool,
		logger: logger.With().Str("component", "eventstore").Logger(),
	}
}

// NewWithQuerier builds a Store over any querier, used by tests to
// substitute pgxmock.NewPool() for a real *pgxpool.Pool.
func NewWithQuerier(pool querier, logger zerolog.Logger) *Store {
	return &Store{
		pool:   pool,
		logger: logger.With().Str("component", "eventstore").Logger(),
	}
}

// Append inserts the next event for aggregateID inside tx. expectedVersion
// is the aggregate's version before this event; the new row is written at
// expectedVersion+1. A concurrent append that raced to the same version
// hits the event_store table's unique (aggregate_id, version) constraint
// and is reported back as apperrors.ErrConcurrencyConflict — the caller's
// transaction must then roll back and the command fails outright; this
// store does not retry.
func (s *Store) Append(ctx context.Context, tx pgx.Tx, aggregateID uuid.UUID, aggregateType, eventType string, eventData interface{}, expectedVersion int) (int, error) {
	payload, err := json.Marshal(eventData)
	if err != nil {
		return 0, fmt.Errorf("marshal event data: %w", err)
	}

	newVersion := expectedVersion + 1

	_, err = tx.Exec(ctx, `
		INSERT INTO event_store (aggregate_id, aggregate_type, event_type, event_data, version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, aggregateID, aggregateType, eventType, payload, newVersion, time.Now().UTC())

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			s.logger.Debug().
				Str("aggregate_id", aggregateID.String()).
				Int("version", newVersion).
				Msg("concurrency conflict on event append")
			return 0, fmt.Errorf("append event: %w", apperrors.ErrConcurrencyConflict)
		}
		s.logger.Error().Err(err).
			Str("aggregate_id", aggregateID.String()).
			Str("event_type", eventType).
			Msg("failed to append event")
		return 0, fmt.Errorf("append event: %w: %w", apperrors.ErrStorage, err)
	}

	return newVersion, nil
}

// Load returns every event for aggregateID in version order, used to
// replay (fold) an aggregate from its history.
func (s *Store) Load(ctx context.Context, aggregateID uuid.UUID) ([]Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT aggregate_id, aggregate_type, event_type, event_data, version, created_at
		FROM event_store
		WHERE aggregate_id = $1
		ORDER BY version ASC
	`, aggregateID)
	if err != nil {
		return nil, fmt.Errorf("load events: %w: %w", apperrors.ErrStorage, err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// LoadAll returns every event across every aggregate in this store,
// ordered by creation time then version. Backs the event-store
// inspection routes (spec §6's GET /events).
func (s *Store) LoadAll(ctx context.Context) ([]Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT aggregate_id, aggregate_type, event_type, event_data, version, created_at
		FROM event_store
		ORDER BY created_at ASC, version ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("load all events: %w: %w", apperrors.ErrStorage, err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func scanRecords(rows pgx.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.AggregateID, &rec.AggregateType, &rec.EventType, &rec.EventData, &rec.Version, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return records, nil
}
