package saga

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cypherlabdev/ordersaga/internal/bus"
	"github.com/cypherlabdev/ordersaga/internal/observability"
)

func testPublisher() *bus.Publisher {
	return bus.NewPublisher(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}), zerolog.Nop())
}

func testCommand() PlaceOrderCommand {
	return PlaceOrderCommand{
		OrderID:      uuid.New(),
		CustomerName: "Ada Lovelace",
		ProductID:    uuid.New(),
		ProductName:  "Analytical Engine",
		Quantity:     3,
		TotalPrice:   decimal.NewFromInt(300),
	}
}

func TestExecute_HappyPath(t *testing.T) {
	orderServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer orderServer.Close()

	inventoryServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"success":true}`))
	}))
	defer inventoryServer.Close()

	orch := New(orderServer.URL, inventoryServer.URL, testPublisher(), observability.NewMetricsWithRegistry(prometheus.NewRegistry()), zerolog.Nop())

	result := orch.Execute(context.Background(), testCommand())

	require.True(t, result.Success)
	require.Len(t, result.SagaLog, 3)
	assert.Equal(t, "CreateOrder", result.SagaLog[0].Action)
	assert.Equal(t, StepCompleted, result.SagaLog[0].Status)
	assert.Equal(t, "ReserveInventory", result.SagaLog[1].Action)
	assert.Equal(t, StepCompleted, result.SagaLog[1].Status)
	assert.Equal(t, "ConfirmOrder", result.SagaLog[2].Action)
	assert.Equal(t, StepCompleted, result.SagaLog[2].Status)
}

func TestExecute_InsufficientStock_Compensates(t *testing.T) {
	var cancelCalled bool

	orderServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/commands/orders" {
			w.WriteHeader(http.StatusOK)
			return
		}
		cancelCalled = true
		w.WriteHeader(http.StatusOK)
	}))
	defer orderServer.Close()

	inventoryServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"detail":"Insufficient stock"}`))
	}))
	defer inventoryServer.Close()

	orch := New(orderServer.URL, inventoryServer.URL, testPublisher(), observability.NewMetricsWithRegistry(prometheus.NewRegistry()), zerolog.Nop())

	result := orch.Execute(context.Background(), testCommand())

	require.False(t, result.Success)
	require.Len(t, result.SagaLog, 3)
	assert.Equal(t, StepFailed, result.SagaLog[1].Status)
	assert.Equal(t, "CancelOrder (COMPENSATING)", result.SagaLog[2].Action)
	assert.Equal(t, StepCompleted, result.SagaLog[2].Status)
	assert.True(t, cancelCalled)
}

func TestExecute_InventoryUnreachable_Compensates(t *testing.T) {
	orderServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer orderServer.Close()

	unreachableURL := "http://127.0.0.1:1" // nothing listens here

	orch := New(orderServer.URL, unreachableURL, testPublisher(), observability.NewMetricsWithRegistry(prometheus.NewRegistry()), zerolog.Nop())

	result := orch.Execute(context.Background(), testCommand())

	require.False(t, result.Success)
	require.Len(t, result.SagaLog, 3)
	assert.Equal(t, StepFailed, result.SagaLog[1].Status)
	assert.Contains(t, result.SagaLog[1].Error, "")
}

func TestExecute_CreateOrderFails_NoCompensation(t *testing.T) {
	unreachableURL := "http://127.0.0.1:1"
	orch := New(unreachableURL, unreachableURL, testPublisher(), observability.NewMetricsWithRegistry(prometheus.NewRegistry()), zerolog.Nop())

	result := orch.Execute(context.Background(), testCommand())

	require.False(t, result.Success)
	require.Len(t, result.SagaLog, 1)
	assert.Equal(t, "CreateOrder", result.SagaLog[0].Action)
	assert.Equal(t, StepFailed, result.SagaLog[0].Status)
}

func TestExecute_ConfirmFails_StillReturnsSuccessTrue(t *testing.T) {
	orderServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path[len(r.URL.Path)-len("/confirm"):] {
		case "/confirm":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer orderServer.Close()

	inventoryServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer inventoryServer.Close()

	orch := New(orderServer.URL, inventoryServer.URL, testPublisher(), observability.NewMetricsWithRegistry(prometheus.NewRegistry()), zerolog.Nop())

	result := orch.Execute(context.Background(), testCommand())

	require.True(t, result.Success)
	require.Len(t, result.SagaLog, 3)
	assert.Equal(t, StepFailed, result.SagaLog[2].Status)
}
