// Package repository is the order authority's read-model store:
// orders_read_model, written transactionally alongside the event
// store append and read back by the query routes.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cypherlabdev/ordersaga/internal/apperrors"
	"github.com/cypherlabdev/ordersaga/internal/order/domain"
)

// Row is one orders_read_model row.
type Row struct {
	ID           uuid.UUID
	CustomerName string
	ProductID    uuid.UUID
	ProductName  string
	Quantity     int
	TotalPrice   decimal.Decimal
	Status       domain.Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type execQuerier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgx.CommandTag, error)
}

// readPool is the subset of *pgxpool.Pool this repository needs for
// reads. Narrowing to an interface lets tests substitute pgxmock.NewPool().
type readPool interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// Repository wraps the orders_read_model table.
type Repository struct {
	pool   readPool
	logger zerolog.Logger
}

// New creates a Repository over pool.
func New(pool *pgxpool.Pool, logger zerolog.Logger) *Repository {
	return &Repository{pool: pool, logger: logger.With().Str("component", "order_repository").Logger()}
}

// NewWithPool builds a Repository over any readPool, used by tests to
// substitute pgxmock.NewPool() for a real *pgxpool.Pool.
func NewWithPool(pool readPool, logger zerolog.Logger) *Repository {
	return &Repository{pool: pool, logger: logger.With().Str("component", "order_repository").Logger()}
}

// Insert creates the read-model row for a newly created order, in PENDING.
func (r *Repository) Insert(ctx context.Context, tx execQuerier, row Row) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO orders_read_model
			(id, customer_name, product_id, product_name, quantity, total_price, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	`, row.ID, row.CustomerName, row.ProductID, row.ProductName, row.Quantity, row.TotalPrice, domain.StatusPending, row.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order read model: %w: %w", apperrors.ErrStorage, err)
	}
	return nil
}

// UpdateStatus sets the read-model row's status.
func (r *Repository) UpdateStatus(ctx context.Context, tx execQuerier, id uuid.UUID, status domain.Status, at time.Time) error {
	_, err := tx.Exec(ctx, `
		UPDATE orders_read_model SET status = $1, updated_at = $2 WHERE id = $3
	`, status, at, id)
	if err != nil {
		return fmt.Errorf("update order read model status: %w: %w", apperrors.ErrStorage, err)
	}
	return nil
}

// GetByID returns a single read-model row.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Row, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, customer_name, product_id, product_name, quantity, total_price, status, created_at, updated_at
		FROM orders_read_model WHERE id = $1
	`, id)
	return scanRow(row)
}

// List returns every read-model row, newest first.
func (r *Repository) List(ctx context.Context) ([]Row, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, customer_name, product_id, product_name, quantity, total_price, status, created_at, updated_at
		FROM orders_read_model ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w: %w", apperrors.ErrStorage, err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		row, err := scanRowFromRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

func scanRow(row pgx.Row) (Row, error) {
	var r Row
	err := row.Scan(&r.ID, &r.CustomerName, &r.ProductID, &r.ProductName, &r.Quantity, &r.TotalPrice, &r.Status, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Row{}, apperrors.ErrNotFound
		}
		return Row{}, fmt.Errorf("scan order row: %w: %w", apperrors.ErrStorage, err)
	}
	return r, nil
}

func scanRowFromRows(rows pgx.Rows) (Row, error) {
	var r Row
	err := rows.Scan(&r.ID, &r.CustomerName, &r.ProductID, &r.ProductName, &r.Quantity, &r.TotalPrice, &r.Status, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return Row{}, fmt.Errorf("scan order row: %w: %w", apperrors.ErrStorage, err)
	}
	return r, nil
}
