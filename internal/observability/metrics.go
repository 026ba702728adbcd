package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics shared across the platform's
// processes. Each service only populates the fields it touches; the
// struct is shared so every cmd/*/main.go wires /metrics the same way.
type Metrics struct {
	// Event store
	EventsAppended       *prometheus.CounterVec
	ConcurrencyConflicts *prometheus.CounterVec

	// Order authority
	OrdersCreated   prometheus.Counter
	OrdersConfirmed prometheus.Counter
	OrdersCancelled *prometheus.CounterVec

	// Inventory authority
	ReservationsSucceeded prometheus.Counter
	ReservationsFailed    prometheus.Counter
	ReleasesTotal         prometheus.Counter

	// Saga orchestrator
	SagaExecutionsTotal    *prometheus.CounterVec
	SagaStepDuration       *prometheus.HistogramVec
	SagaCompensationsTotal prometheus.Counter

	// Marketing projector
	ProjectedEventsTotal *prometheus.CounterVec
	ProjectionErrors     *prometheus.CounterVec

	// Database
	DatabaseOperationDuration *prometheus.HistogramVec
	DatabaseErrors            *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics with the default registry
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsWithRegistry creates metrics with a custom registry (useful for testing)
func NewMetricsWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		EventsAppended: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ordersaga_events_appended_total",
				Help: "Total number of events appended to an event store",
			},
			[]string{"aggregate_type", "event_type"},
		),
		ConcurrencyConflicts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ordersaga_concurrency_conflicts_total",
				Help: "Total number of optimistic concurrency conflicts on append",
			},
			[]string{"aggregate_type"},
		),
		OrdersCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ordersaga_orders_created_total",
				Help: "Total number of orders created",
			},
		),
		OrdersConfirmed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ordersaga_orders_confirmed_total",
				Help: "Total number of orders confirmed",
			},
		),
		OrdersCancelled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ordersaga_orders_cancelled_total",
				Help: "Total number of orders cancelled",
			},
			[]string{"reason"},
		),
		ReservationsSucceeded: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ordersaga_inventory_reservations_succeeded_total",
				Help: "Total number of successful inventory reservations",
			},
		),
		ReservationsFailed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ordersaga_inventory_reservations_failed_total",
				Help: "Total number of inventory reservations rejected for insufficient stock",
			},
		),
		ReleasesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ordersaga_inventory_releases_total",
				Help: "Total number of inventory releases (compensations)",
			},
		),
		SagaExecutionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ordersaga_saga_executions_total",
				Help: "Total number of saga executions by terminal outcome",
			},
			[]string{"outcome"}, // completed, compensated, failed
		),
		SagaStepDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ordersaga_saga_step_duration_seconds",
				Help:    "Duration of individual saga steps",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"step", "status"},
		),
		SagaCompensationsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ordersaga_saga_compensations_total",
				Help: "Total number of saga compensations executed",
			},
		),
		ProjectedEventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ordersaga_projected_events_total",
				Help: "Total number of events projected into the marketing read model",
			},
			[]string{"event_type"},
		),
		ProjectionErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ordersaga_projection_errors_total",
				Help: "Total number of projection failures, by cause",
			},
			[]string{"event_type", "reason"},
		),
		DatabaseOperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ordersaga_database_operation_duration_seconds",
				Help:    "Duration of database operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		DatabaseErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ordersaga_database_errors_total",
				Help: "Total number of database errors",
			},
			[]string{"operation"},
		),
	}
}
