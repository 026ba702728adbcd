package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cypherlabdev/ordersaga/internal/apperrors"
	"github.com/cypherlabdev/ordersaga/internal/bus"
	"github.com/cypherlabdev/ordersaga/internal/eventstore"
	"github.com/cypherlabdev/ordersaga/internal/inventory/repository"
	"github.com/cypherlabdev/ordersaga/internal/observability"
)

func newTestService(t *testing.T, mockPool pgxmock.PgxPoolIface) *Service {
	t.Helper()
	logger := zerolog.Nop()
	store := eventstore.NewWithQuerier(mockPool, logger)
	repo := repository.NewWithPool(mockPool, logger)
	metrics := observability.NewMetricsWithRegistry(prometheus.NewRegistry())
	publisher := bus.NewPublisher(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}), logger)
	return New(mockPool, store, repo, publisher, metrics, logger)
}

func TestReserveInventory_Success(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	svc := newTestService(t, mockPool)

	productID := uuid.New()
	orderID := uuid.New()

	mockPool.ExpectQuery("SELECT id, product_name, quantity, reserved, updated_at").
		WithArgs(productID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "product_name", "quantity", "reserved", "updated_at"}).
			AddRow(productID, "Widget", 10, 0, time.Now().UTC()))

	mockPool.ExpectQuery("SELECT aggregate_id, aggregate_type, event_type, event_data, version, created_at").
		WithArgs(productID).
		WillReturnRows(pgxmock.NewRows([]string{"aggregate_id", "aggregate_type", "event_type", "event_data", "version", "created_at"}))

	mockPool.ExpectBegin()
	mockPool.ExpectExec("INSERT INTO event_store").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockPool.ExpectExec("UPDATE inventory_read_model SET reserved").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mockPool.ExpectCommit()

	result, err := svc.ReserveInventory(context.Background(), productID, ReserveRequest{OrderID: orderID, Quantity: 3})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestReserveInventory_InsufficientStock(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	svc := newTestService(t, mockPool)

	productID := uuid.New()
	orderID := uuid.New()

	mockPool.ExpectQuery("SELECT id, product_name, quantity, reserved, updated_at").
		WithArgs(productID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "product_name", "quantity", "reserved", "updated_at"}).
			AddRow(productID, "Widget", 2, 0, time.Now().UTC()))

	mockPool.ExpectQuery("SELECT aggregate_id, aggregate_type, event_type, event_data, version, created_at").
		WithArgs(productID).
		WillReturnRows(pgxmock.NewRows([]string{"aggregate_id", "aggregate_type", "event_type", "event_data", "version", "created_at"}))

	mockPool.ExpectBegin()
	mockPool.ExpectExec("INSERT INTO event_store").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockPool.ExpectCommit()

	result, err := svc.ReserveInventory(context.Background(), productID, ReserveRequest{OrderID: orderID, Quantity: 5})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrBusinessReject))
	assert.False(t, result.Success)
	assert.Contains(t, result.Reason, "Insufficient stock")
	assert.NoError(t, mockPool.ExpectationsWereMet())
}
