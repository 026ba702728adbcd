// Package repository is the marketing projector's Postgres access:
// the five marketing read-model tables, written by the projector
// package and read back by the query handlers. Grounded on
// original_source/services/marketing/app/{projections.py,queries.py}.
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
	"github.com/cypherlabdev/ordersaga/internal/marketing/domain"
)

// execQuerier is the subset of a transaction the projector package uses.
type execQuerier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgx.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// readPool is the subset of *pgxpool.Pool the query handlers use.
type readPool interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Repository wraps the five marketing read-model tables.
type Repository struct {
	pool   readPool
	logger zerolog.Logger
}

// New creates a Repository over pool.
func New(pool *pgxpool.Pool, logger zerolog.Logger) *Repository {
	return &Repository{pool: pool, logger: logger.With().Str("component", "marketing_repository").Logger()}
}

// NewWithPool builds a Repository over any readPool, used by tests to
// substitute pgxmock.NewPool() for a real *pgxpool.Pool.
func NewWithPool(pool readPool, logger zerolog.Logger) *Repository {
	return &Repository{pool: pool, logger: logger.With().Str("component", "marketing_repository").Logger()}
}

// InsertSnapshot records a new order, idempotent on order_id: a
// redelivered OrderCreated (never happens on this bus, but defensive
// against a restarted subscriber replaying its own in-flight message)
// leaves the row untouched.
func InsertSnapshot(ctx context.Context, tx execQuerier, s domain.OrderSnapshot) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO marketing_order_snapshot
			(order_id, customer_name, product_id, product_name, quantity, total_price, status, order_date, created_at, updated_at)
		VALUES
			($1, $2, $3, $4, $5, $6, 'PENDING', $7, $8, $8)
		ON CONFLICT (order_id) DO NOTHING
	`, s.OrderID, s.CustomerName, s.ProductID, s.ProductName, s.Quantity, s.TotalPrice, s.OrderDate, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert marketing order snapshot: %w: %w", apperrors.ErrStorage, err)
	}
	return nil
}

// GetSnapshot returns the snapshot row for order_id, or apperrors.ErrNotFound.
func GetSnapshot(ctx context.Context, tx execQuerier, orderID uuid.UUID) (domain.OrderSnapshot, error) {
	row := tx.QueryRow(ctx, `
		SELECT order_id, customer_name, product_id, product_name, quantity, total_price, status, order_date, created_at, updated_at
		FROM marketing_order_snapshot WHERE order_id = $1
	`, orderID)
	var s domain.OrderSnapshot
	err := row.Scan(&s.OrderID, &s.CustomerName, &s.ProductID, &s.ProductName, &s.Quantity, &s.TotalPrice, &s.Status, &s.OrderDate, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.OrderSnapshot{}, apperrors.ErrNotFound
		}
		return domain.OrderSnapshot{}, fmt.Errorf("scan marketing order snapshot: %w: %w", apperrors.ErrStorage, err)
	}
	return s, nil
}

// UpdateSnapshotStatus sets the snapshot's status.
func UpdateSnapshotStatus(ctx context.Context, tx execQuerier, orderID uuid.UUID, status domain.SnapshotStatus, at time.Time) error {
	_, err := tx.Exec(ctx, `
		UPDATE marketing_order_snapshot SET status = $1, updated_at = $2 WHERE order_id = $3
	`, status, at, orderID)
	if err != nil {
		return fmt.Errorf("update marketing order snapshot status: %w: %w", apperrors.ErrStorage, err)
	}
	return nil
}

// UpsertCustomerOrderPlaced records a new order against a customer's
// running summary, recomputing the average order value in place.
func UpsertCustomerOrderPlaced(ctx context.Context, tx execQuerier, customerName string, price decimal.Decimal, at time.Time) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO customer_summary
			(customer_name, total_orders, total_revenue, avg_order_value, first_order_at, last_order_at, updated_at)
		VALUES
			($1, 1, $2, $2, $3, $3, $3)
		ON CONFLICT (customer_name) DO UPDATE SET
			total_orders = customer_summary.total_orders + 1,
			total_revenue = customer_summary.total_revenue + $2,
			avg_order_value = (customer_summary.total_revenue + $2) / (customer_summary.total_orders + 1),
			last_order_at = $3,
			updated_at = $3
	`, customerName, price, at)
	if err != nil {
		return fmt.Errorf("upsert customer summary: %w: %w", apperrors.ErrStorage, err)
	}
	return nil
}

// IncrementCustomerConfirmed bumps a customer's confirmed_orders counter.
func IncrementCustomerConfirmed(ctx context.Context, tx execQuerier, customerName string, at time.Time) error {
	_, err := tx.Exec(ctx, `
		UPDATE customer_summary SET confirmed_orders = confirmed_orders + 1, updated_at = $1 WHERE customer_name = $2
	`, at, customerName)
	if err != nil {
		return fmt.Errorf("increment customer confirmed_orders: %w: %w", apperrors.ErrStorage, err)
	}
	return nil
}

// IncrementCustomerCancelled bumps a customer's cancelled_orders counter.
func IncrementCustomerCancelled(ctx context.Context, tx execQuerier, customerName string, at time.Time) error {
	_, err := tx.Exec(ctx, `
		UPDATE customer_summary SET cancelled_orders = cancelled_orders + 1, updated_at = $1 WHERE customer_name = $2
	`, at, customerName)
	if err != nil {
		return fmt.Errorf("increment customer cancelled_orders: %w: %w", apperrors.ErrStorage, err)
	}
	return nil
}

// UpsertProductOrderPlaced records a new order against a product's
// popularity row, then recomputes unique_customers from the map table.
func UpsertProductOrderPlaced(ctx context.Context, tx execQuerier, productID uuid.UUID, productName string, quantity int, price decimal.Decimal, customerName string, at time.Time) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO product_popularity
			(product_id, product_name, total_units_ordered, total_order_count, total_revenue, unique_customers, updated_at)
		VALUES
			($1, $2, $3, 1, $4, 0, $5)
		ON CONFLICT (product_id) DO UPDATE SET
			total_units_ordered = product_popularity.total_units_ordered + $3,
			total_order_count = product_popularity.total_order_count + 1,
			total_revenue = product_popularity.total_revenue + $4,
			updated_at = $5
	`, productID, productName, quantity, price, at)
	if err != nil {
		return fmt.Errorf("upsert product popularity: %w: %w", apperrors.ErrStorage, err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO product_customer_map (product_id, customer_name) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, productID, customerName); err != nil {
		return fmt.Errorf("insert product_customer_map: %w: %w", apperrors.ErrStorage, err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE product_popularity
		SET unique_customers = (SELECT COUNT(*) FROM product_customer_map WHERE product_id = $1)
		WHERE product_id = $1
	`, productID); err != nil {
		return fmt.Errorf("recompute unique_customers: %w: %w", apperrors.ErrStorage, err)
	}
	return nil
}

// IncrementProductConfirmed bumps a product's confirmed unit/order counters.
func IncrementProductConfirmed(ctx context.Context, tx execQuerier, productID uuid.UUID, quantity int, at time.Time) error {
	_, err := tx.Exec(ctx, `
		UPDATE product_popularity
		SET confirmed_units = confirmed_units + $1, confirmed_order_count = confirmed_order_count + 1, updated_at = $2
		WHERE product_id = $3
	`, quantity, at, productID)
	if err != nil {
		return fmt.Errorf("increment product confirmed counters: %w: %w", apperrors.ErrStorage, err)
	}
	return nil
}

// UpsertDailyOrderPlaced records a new order against the day's sales summary.
func UpsertDailyOrderPlaced(ctx context.Context, tx execQuerier, saleDate time.Time, price decimal.Decimal, at time.Time) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO daily_sales_summary
			(sale_date, total_orders, total_revenue, avg_order_value, updated_at)
		VALUES
			($1, 1, $2, $2, $3)
		ON CONFLICT (sale_date) DO UPDATE SET
			total_orders = daily_sales_summary.total_orders + 1,
			total_revenue = daily_sales_summary.total_revenue + $2,
			avg_order_value = (daily_sales_summary.total_revenue + $2) / (daily_sales_summary.total_orders + 1),
			updated_at = $3
	`, saleDate, price, at)
	if err != nil {
		return fmt.Errorf("upsert daily sales summary: %w: %w", apperrors.ErrStorage, err)
	}
	return nil
}

// IncrementDailyConfirmed bumps the day's confirmed_orders counter.
func IncrementDailyConfirmed(ctx context.Context, tx execQuerier, saleDate time.Time, at time.Time) error {
	_, err := tx.Exec(ctx, `
		UPDATE daily_sales_summary SET confirmed_orders = confirmed_orders + 1, updated_at = $1 WHERE sale_date = $2
	`, at, saleDate)
	if err != nil {
		return fmt.Errorf("increment daily confirmed_orders: %w: %w", apperrors.ErrStorage, err)
	}
	return nil
}

// IncrementDailyCancelled bumps the day's cancelled_orders counter.
func IncrementDailyCancelled(ctx context.Context, tx execQuerier, saleDate time.Time, at time.Time) error {
	_, err := tx.Exec(ctx, `
		UPDATE daily_sales_summary SET cancelled_orders = cancelled_orders + 1, updated_at = $1 WHERE sale_date = $2
	`, at, saleDate)
	if err != nil {
		return fmt.Errorf("increment daily cancelled_orders: %w: %w", apperrors.ErrStorage, err)
	}
	return nil
}

// ListCustomerSummaries returns every customer_summary row, revenue descending.
func (r *Repository) ListCustomerSummaries(ctx context.Context) ([]domain.CustomerSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT customer_name, total_orders, confirmed_orders, cancelled_orders, total_revenue, avg_order_value, first_order_at, last_order_at, updated_at
		FROM customer_summary ORDER BY total_revenue DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list customer summaries: %w: %w", apperrors.ErrStorage, err)
	}
	defer rows.Close()

	var out []domain.CustomerSummary
	for rows.Next() {
		var c domain.CustomerSummary
		if err := rows.Scan(&c.CustomerName, &c.TotalOrders, &c.ConfirmedOrders, &c.CancelledOrders, &c.TotalRevenue, &c.AvgOrderValue, &c.FirstOrderAt, &c.LastOrderAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan customer summary: %w: %w", apperrors.ErrStorage, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetCustomerSummary returns one customer's summary, or apperrors.ErrNotFound.
func (r *Repository) GetCustomerSummary(ctx context.Context, customerName string) (domain.CustomerSummary, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT customer_name, total_orders, confirmed_orders, cancelled_orders, total_revenue, avg_order_value, first_order_at, last_order_at, updated_at
		FROM customer_summary WHERE customer_name = $1
	`, customerName)
	var c domain.CustomerSummary
	err := row.Scan(&c.CustomerName, &c.TotalOrders, &c.ConfirmedOrders, &c.CancelledOrders, &c.TotalRevenue, &c.AvgOrderValue, &c.FirstOrderAt, &c.LastOrderAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.CustomerSummary{}, apperrors.ErrNotFound
		}
		return domain.CustomerSummary{}, fmt.Errorf("scan customer summary: %w: %w", apperrors.ErrStorage, err)
	}
	return c, nil
}

// ListProductPopularity returns every product_popularity row, revenue descending.
func (r *Repository) ListProductPopularity(ctx context.Context) ([]domain.ProductPopularity, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT product_id, product_name, total_units_ordered, confirmed_units, total_order_count, confirmed_order_count, total_revenue, unique_customers, updated_at
		FROM product_popularity ORDER BY total_revenue DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list product popularity: %w: %w", apperrors.ErrStorage, err)
	}
	defer rows.Close()

	var out []domain.ProductPopularity
	for rows.Next() {
		var p domain.ProductPopularity
		if err := rows.Scan(&p.ProductID, &p.ProductName, &p.TotalUnitsOrdered, &p.ConfirmedUnits, &p.TotalOrderCount, &p.ConfirmedOrderCount, &p.TotalRevenue, &p.UniqueCustomers, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan product popularity: %w: %w", apperrors.ErrStorage, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListDailySales returns the most recent 30 daily_sales_summary rows.
func (r *Repository) ListDailySales(ctx context.Context) ([]domain.DailySales, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT sale_date, total_orders, confirmed_orders, cancelled_orders, total_revenue, avg_order_value, updated_at
		FROM daily_sales_summary ORDER BY sale_date DESC LIMIT 30
	`)
	if err != nil {
		return nil, fmt.Errorf("list daily sales: %w: %w", apperrors.ErrStorage, err)
	}
	defer rows.Close()

	var out []domain.DailySales
	for rows.Next() {
		var d domain.DailySales
		if err := rows.Scan(&d.SaleDate, &d.TotalOrders, &d.ConfirmedOrders, &d.CancelledOrders, &d.TotalRevenue, &d.AvgOrderValue, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan daily sales: %w: %w", apperrors.ErrStorage, err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
