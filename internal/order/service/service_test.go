package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cypherlabdev/ordersaga/internal/bus"
	"github.com/cypherlabdev/ordersaga/internal/eventstore"
	"github.com/cypherlabdev/ordersaga/internal/observability"
	"github.com/cypherlabdev/ordersaga/internal/order/domain"
	"github.com/cypherlabdev/ordersaga/internal/order/repository"
)

func TestService_CreateOrder_Success(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	logger := zerolog.Nop()
	store := eventstore.NewWithQuerier(mockPool, logger)
	repo := repository.New(nil, logger) // reads unused in this test
	metrics := observability.NewMetricsWithRegistry(prometheus.NewRegistry())
	publisher := bus.NewPublisher(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}), logger)

	svc := New(mockPool, store, repo, publisher, metrics, logger)

	orderID := uuid.New()
	productID := uuid.New()

	mockPool.ExpectBegin()
	mockPool.ExpectExec("INSERT INTO event_store").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockPool.ExpectExec("INSERT INTO orders_read_model").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockPool.ExpectCommit()

	result, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		OrderID:      orderID,
		CustomerName: "Grace Hopper",
		ProductID:    productID,
		ProductName:  "Compiler",
		Quantity:     1,
		TotalPrice:   decimal.NewFromInt(100),
	})

	require.NoError(t, err)
	assert.Equal(t, orderID, result.OrderID)
	assert.Equal(t, domain.StatusPending, result.Status)
	assert.Equal(t, 1, result.Version)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestService_ConfirmOrder_NotFound(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	logger := zerolog.Nop()
	store := eventstore.NewWithQuerier(mockPool, logger)
	repo := repository.New(nil, logger)
	metrics := observability.NewMetricsWithRegistry(prometheus.NewRegistry())
	publisher := bus.NewPublisher(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}), logger)

	svc := New(mockPool, store, repo, publisher, metrics, logger)

	orderID := uuid.New()
	mockPool.ExpectQuery("SELECT aggregate_id, aggregate_type, event_type, event_data, version, created_at").
		WithArgs(orderID).
		WillReturnRows(pgxmock.NewRows([]string{"aggregate_id", "aggregate_type", "event_type", "event_data", "version", "created_at"}))

	_, err = svc.ConfirmOrder(context.Background(), orderID)
	require.Error(t, err)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}
