package projector

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/cypherlabdev/ordersaga/internal/bus"
	orderdomain "github.com/cypherlabdev/ordersaga/internal/order/domain"
	"github.com/cypherlabdev/ordersaga/internal/observability"
)

func newTestProjector(t *testing.T, mockPool pgxmock.PgxPoolIface) *Projector {
	t.Helper()
	logger := zerolog.Nop()
	subscriber := bus.NewSubscriber(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}), logger)
	metrics := observability.NewMetricsWithRegistry(prometheus.NewRegistry())
	return &Projector{pool: mockPool, subscriber: subscriber, metrics: metrics, logger: logger}
}

func TestHandle_OrderCreated_ProjectsAllTables(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	p := newTestProjector(t, mockPool)

	payload := orderdomain.OrderCreatedPayload{
		OrderID:      uuid.New(),
		CustomerName: "Ada Lovelace",
		ProductID:    uuid.New(),
		ProductName:  "Analytical Engine",
		Quantity:     2,
		TotalPrice:   decimal.NewFromInt(200),
		Timestamp:    time.Now().UTC(),
	}
	data, err := json.Marshal(payload)
	require.NoError(t, err)

	mockPool.ExpectBegin()
	mockPool.ExpectExec("INSERT INTO marketing_order_snapshot").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockPool.ExpectExec("INSERT INTO customer_summary").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockPool.ExpectExec("INSERT INTO product_popularity").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockPool.ExpectExec("INSERT INTO product_customer_map").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockPool.ExpectExec("UPDATE product_popularity").WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mockPool.ExpectExec("INSERT INTO daily_sales_summary").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockPool.ExpectCommit()

	err = p.handle(context.Background(), bus.Envelope{EventType: orderdomain.EventOrderCreated, Data: data})
	require.NoError(t, err)
	require.NoError(t, mockPool.ExpectationsWereMet())
}

func TestHandle_OrderConfirmed_NoSnapshot_SkipsSilently(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	p := newTestProjector(t, mockPool)

	payload := orderdomain.OrderConfirmedPayload{OrderID: uuid.New(), Timestamp: time.Now().UTC()}
	data, err := json.Marshal(payload)
	require.NoError(t, err)

	mockPool.ExpectBegin()
	mockPool.ExpectQuery("SELECT order_id, customer_name, product_id, product_name, quantity, total_price, status, order_date, created_at, updated_at").
		WillReturnRows(pgxmock.NewRows([]string{"order_id", "customer_name", "product_id", "product_name", "quantity", "total_price", "status", "order_date", "created_at", "updated_at"}))
	mockPool.ExpectCommit()

	err = p.handle(context.Background(), bus.Envelope{EventType: orderdomain.EventOrderConfirmed, Data: data})
	require.NoError(t, err)
	require.NoError(t, mockPool.ExpectationsWereMet())
}

func TestHandle_UnknownEventType_Ignored(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	p := newTestProjector(t, mockPool)

	mockPool.ExpectBegin()
	mockPool.ExpectCommit()

	err = p.handle(context.Background(), bus.Envelope{EventType: "SomethingElse", Data: json.RawMessage(`{}`)})
	require.NoError(t, err)
	require.NoError(t, mockPool.ExpectationsWereMet())
}
