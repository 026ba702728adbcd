// Package saga is the orchestrator that drives CreateOrder →
// ReserveInventory → ConfirmOrder across the order and inventory
// authorities, compensating with CancelOrder on failure. A straight
// line translation of original_source/services/saga/app/orchestrator.py
// (spec.md §4.4): single-attempt HTTP calls, no retries, stateless
// between executions.
package saga

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cypherlabdev/ordersaga/internal/bus"
	"github.com/cypherlabdev/ordersaga/internal/observability"
)

const (
	sagaEventsChannel  = "saga_events"
	orderServiceTimeout = 30 * time.Second
)

// StepStatus is a SagaStep's lifecycle state.
type StepStatus string

const (
	StepExecuting StepStatus = "EXECUTING"
	StepCompleted StepStatus = "COMPLETED"
	StepFailed    StepStatus = "FAILED"
)

// Step is one entry in a saga's append-only log.
type Step struct {
	Step      int        `json:"step"`
	Action    string     `json:"action"`
	Status    StepStatus `json:"status"`
	Timestamp time.Time  `json:"timestamp"`
	Error     string     `json:"error,omitempty"`
}

// PlaceOrderCommand is the input to Execute, the body of POST /saga/place-order.
type PlaceOrderCommand struct {
	OrderID      uuid.UUID       `json:"order_id" validate:"required"`
	CustomerName string          `json:"customer_name" validate:"required"`
	ProductID    uuid.UUID       `json:"product_id" validate:"required"`
	ProductName  string          `json:"product_name" validate:"required"`
	Quantity     int             `json:"quantity" validate:"required,gt=0"`
	TotalPrice   decimal.Decimal `json:"total_price" validate:"required"`
}

// Result is always returned, success or failure conveyed in the Success field.
type Result struct {
	Success bool   `json:"success"`
	SagaLog []Step `json:"saga_log"`
}

// Orchestrator is stateless between calls; progress is held only in the
// in-memory log during one Execute call.
type Orchestrator struct {
	orderServiceURL     string
	inventoryServiceURL string
	httpClient          *http.Client
	publisher           *bus.Publisher
	metrics             *observability.Metrics
	logger              zerolog.Logger
}

// New builds an Orchestrator.
func New(orderServiceURL, inventoryServiceURL string, publisher *bus.Publisher, metrics *observability.Metrics, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		orderServiceURL:     orderServiceURL,
		inventoryServiceURL: inventoryServiceURL,
		httpClient:          &http.Client{Timeout: orderServiceTimeout},
		publisher:           publisher,
		metrics:             metrics,
		logger:              logger.With().Str("component", "saga_orchestrator").Logger(),
	}
}

// Execute runs the forward flow and, when Step 2 (ReserveInventory)
// fails, the CancelOrder compensation. A Step-1 failure ends the saga
// without compensation; a Step-3 failure is only logged.
// Exactly one terminal event is published per execution.
func (o *Orchestrator) Execute(ctx context.Context, cmd PlaceOrderCommand) Result {
	var log []Step

	// Step 1: CreateOrder (forward)
	log = append(log, Step{Step: 1, Action: "CreateOrder", Status: StepExecuting, Timestamp: time.Now().UTC()})
	createBody := map[string]interface{}{
		"order_id":      cmd.OrderID,
		"customer_name": cmd.CustomerName,
		"product_id":    cmd.ProductID,
		"product_name":  cmd.ProductName,
		"quantity":      cmd.Quantity,
		"total_price":   cmd.TotalPrice,
	}
	if err := o.post(ctx, o.orderServiceURL+"/commands/orders", createBody, nil); err != nil {
		log[len(log)-1].Status = StepFailed
		log[len(log)-1].Error = err.Error()
		o.recordOutcome("failed")
		o.publishTerminal(ctx, "SagaFailed", cmd.OrderID, log)
		return Result{Success: false, SagaLog: log}
	}
	log[len(log)-1].Status = StepCompleted

	// Step 2: ReserveInventory (forward)
	log = append(log, Step{Step: 2, Action: "ReserveInventory", Status: StepExecuting, Timestamp: time.Now().UTC()})
	reserveBody := map[string]interface{}{
		"order_id": cmd.OrderID,
		"quantity": cmd.Quantity,
	}
	reserveErr := o.post(ctx, fmt.Sprintf("%s/commands/inventory/%s/reserve", o.inventoryServiceURL, cmd.ProductID), reserveBody, nil)
	if reserveErr != nil {
		log[len(log)-1].Status = StepFailed
		log[len(log)-1].Error = reserveErr.Error()

		// Step 3' (compensation): CancelOrder, for both business-reject (4xx)
		// and transport-class failures (network error or 5xx) — the
		// distinction only changes the logged error string, not the action
		// taken (spec.md §4.4).
		reason := "Inventory reservation failed"
		if !isBusinessReject(reserveErr) {
			reason = fmt.Sprintf("Inventory service error: %s", reserveErr.Error())
		}
		o.compensate(ctx, cmd.OrderID, reason, &log)
		o.recordOutcome("compensated")
		o.publishTerminal(ctx, "SagaCompensated", cmd.OrderID, log)
		return Result{Success: false, SagaLog: log}
	}
	log[len(log)-1].Status = StepCompleted

	// Step 3: ConfirmOrder (forward)
	log = append(log, Step{Step: 3, Action: "ConfirmOrder", Status: StepExecuting, Timestamp: time.Now().UTC()})
	if err := o.post(ctx, fmt.Sprintf("%s/commands/orders/%s/confirm", o.orderServiceURL, cmd.OrderID), nil, nil); err != nil {
		// Per spec.md §4.4/§9: a Step-3 failure still returns success:true.
		// The order is left PENDING while inventory stays reserved.
		log[len(log)-1].Status = StepFailed
		log[len(log)-1].Error = err.Error()
	} else {
		log[len(log)-1].Status = StepCompleted
	}

	o.recordOutcome("completed")
	o.publishTerminal(ctx, "SagaCompleted", cmd.OrderID, log)
	return Result{Success: true, SagaLog: log}
}

func (o *Orchestrator) compensate(ctx context.Context, orderID uuid.UUID, reason string, log *[]Step) {
	*log = append(*log, Step{Step: 3, Action: "CancelOrder (COMPENSATING)", Status: StepExecuting, Timestamp: time.Now().UTC()})
	idx := len(*log) - 1
	cancelBody := map[string]string{"reason": reason}
	if err := o.post(ctx, fmt.Sprintf("%s/commands/orders/%s/cancel", o.orderServiceURL, orderID), cancelBody, nil); err != nil {
		(*log)[idx].Status = StepFailed
		if o.metrics != nil {
			o.metrics.SagaCompensationsTotal.Inc()
		}
		return
	}
	(*log)[idx].Status = StepCompleted
	if o.metrics != nil {
		o.metrics.SagaCompensationsTotal.Inc()
	}
}

func (o *Orchestrator) publishTerminal(ctx context.Context, eventType string, orderID uuid.UUID, log []Step) {
	payload := map[string]interface{}{
		"order_id": orderID,
		"saga_log": log,
	}
	if err := o.publisher.Publish(ctx, sagaEventsChannel, eventType, payload); err != nil {
		o.logger.Error().Err(err).Str("order_id", orderID.String()).Str("event_type", eventType).Msg("publish terminal saga event failed")
	}
}

func (o *Orchestrator) recordOutcome(outcome string) {
	if o.metrics != nil {
		o.metrics.SagaExecutionsTotal.WithLabelValues(outcome).Inc()
	}
}

// httpStatusError mirrors httpx.HTTPStatusError: a non-2xx response, as
// opposed to a transport-level failure (network error, timeout).
type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Body)
}

// isBusinessReject reports whether err is a 4xx response — stock
// insufficient or another business-level rejection, as opposed to a
// transport-class failure (network error or 5xx).
func isBusinessReject(err error) bool {
	statusErr, ok := err.(*httpStatusError)
	if !ok {
		return false
	}
	return statusErr.StatusCode >= 400 && statusErr.StatusCode < 500
}

// post issues a single-attempt POST with the orchestrator's 30-second
// client timeout. A non-2xx response is returned as *httpStatusError so
// callers can distinguish business rejection from transport failure; any
// other error (network, timeout, context cancellation) is returned as-is.
func (o *Orchestrator) post(ctx context.Context, url string, body interface{}, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &httpStatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if out != nil {
		return json.Unmarshal(respBody, out)
	}
	return nil
}
