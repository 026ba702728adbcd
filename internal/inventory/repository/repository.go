// Package repository is the inventory authority's read-model store:
// inventory_read_model, keeping quantity/reserved in sync with the
// event stream.
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

	"github.com/cypherlabdev/ordersaga/internal/apperrors"
)

// Row is one inventory_read_model row.
type Row struct {
	ProductID   uuid.UUID
	ProductName string
	Quantity    int
	Reserved    int
	UpdatedAt   time.Time
}

// Available is Quantity minus Reserved.
func (r Row) Available() int {
	return r.Quantity - r.Reserved
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

// Repository wraps the inventory_read_model table.
type Repository struct {
	pool   readPool
	logger zerolog.Logger
}

// New creates a Repository over pool.
func New(pool *pgxpool.Pool, logger zerolog.Logger) *Repository {
	return &Repository{pool: pool, logger: logger.With().Str("component", "inventory_repository").Logger()}
}

// NewWithPool builds a Repository over any readPool, used by tests to
// substitute pgxmock.NewPool() for a real *pgxpool.Pool.
func NewWithPool(pool readPool, logger zerolog.Logger) *Repository {
	return &Repository{pool: pool, logger: logger.With().Str("component", "inventory_repository").Logger()}
}

// GetByID returns the current stock row for a product.
func (r *Repository) GetByID(ctx context.Context, productID uuid.UUID) (Row, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, product_name, quantity, reserved, updated_at
		FROM inventory_read_model WHERE id = $1
	`, productID)
	return scanRow(row)
}

// List returns every product's stock row.
func (r *Repository) List(ctx context.Context) ([]Row, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, product_name, quantity, reserved, updated_at
		FROM inventory_read_model ORDER BY product_name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w: %w", apperrors.ErrStorage, err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var row Row
		if err := rows.Scan(&row.ProductID, &row.ProductName, &row.Quantity, &row.Reserved, &row.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan inventory row: %w: %w", apperrors.ErrStorage, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

// IncrementReserved bumps reserved by delta (positive for a reservation,
// negative for a release) inside tx.
func (r *Repository) IncrementReserved(ctx context.Context, tx execQuerier, productID uuid.UUID, delta int, at time.Time) error {
	_, err := tx.Exec(ctx, `
		UPDATE inventory_read_model SET reserved = reserved + $1, updated_at = $2 WHERE id = $3
	`, delta, at, productID)
	if err != nil {
		return fmt.Errorf("update inventory reserved: %w: %w", apperrors.ErrStorage, err)
	}
	return nil
}

func scanRow(row pgx.Row) (Row, error) {
	var r Row
	err := row.Scan(&r.ProductID, &r.ProductName, &r.Quantity, &r.Reserved, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Row{}, apperrors.ErrNotFound
		}
		return Row{}, fmt.Errorf("scan inventory row: %w: %w", apperrors.ErrStorage, err)
	}
	return r, nil
}
