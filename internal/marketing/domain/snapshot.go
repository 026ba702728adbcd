// Package domain holds the marketing projector's read-only view of an
// order snapshot. The marketing read model is independent of the order
// authority's own read model (spec.md §5.5): it is rebuilt purely from
// the order_events it observes, and can fall behind or drop events
// entirely under the at-most-once bus contract.
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SnapshotStatus mirrors the order's lifecycle as last observed by the projector.
type SnapshotStatus string

const (
	SnapshotPending   SnapshotStatus = "PENDING"
	SnapshotConfirmed SnapshotStatus = "CONFIRMED"
	SnapshotCancelled SnapshotStatus = "CANCELLED"
)

// OrderSnapshot is one marketing_order_snapshot row.
type OrderSnapshot struct {
	OrderID      uuid.UUID
	CustomerName string
	ProductID    uuid.UUID
	ProductName  string
	Quantity     int
	TotalPrice   decimal.Decimal
	Status       SnapshotStatus
	OrderDate    time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CustomerSummary is one customer_summary row.
type CustomerSummary struct {
	CustomerName    string
	TotalOrders     int
	ConfirmedOrders int
	CancelledOrders int
	TotalRevenue    decimal.Decimal
	AvgOrderValue   decimal.Decimal
	FirstOrderAt    time.Time
	LastOrderAt     time.Time
	UpdatedAt       time.Time
}

// ProductPopularity is one product_popularity row.
type ProductPopularity struct {
	ProductID           uuid.UUID
	ProductName         string
	TotalUnitsOrdered   int
	ConfirmedUnits      int
	TotalOrderCount     int
	ConfirmedOrderCount int
	TotalRevenue        decimal.Decimal
	UniqueCustomers     int
	UpdatedAt           time.Time
}

// DailySales is one daily_sales_summary row.
type DailySales struct {
	SaleDate        time.Time
	TotalOrders     int
	ConfirmedOrders int
	CancelledOrders int
	TotalRevenue    decimal.Decimal
	AvgOrderValue   decimal.Decimal
	UpdatedAt       time.Time
}

// Overview is the BFF-style aggregate response for the dashboard.
type Overview struct {
	Summary struct {
		TotalRevenue       decimal.Decimal `json:"total_revenue"`
		TotalCustomers     int             `json:"total_customers"`
		TotalProductTypes  int             `json:"total_product_types"`
	} `json:"summary"`
	TopCustomers     []CustomerSummary   `json:"top_customers"`
	TopProducts      []ProductPopularity `json:"top_products"`
	RecentDailySales []DailySales        `json:"recent_daily_sales"`
}
