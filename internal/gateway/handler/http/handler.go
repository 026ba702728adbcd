// Package http mounts the gateway's frontend-facing routes, each one
// a thin fan-out to a downstream service (spec.md §5.7). Grounded on
// original_source/services/bff/app/main.py.
package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cypherlabdev/ordersaga/internal/gateway"
	"github.com/cypherlabdev/ordersaga/internal/httpx"
)

// Handler wires the gateway's fan-out routes.
type Handler struct {
	client              *gateway.Client
	orderServiceURL     string
	inventoryServiceURL string
	sagaServiceURL      string
	marketingServiceURL string
	logger              zerolog.Logger
}

// New builds a Handler.
func New(client *gateway.Client, orderServiceURL, inventoryServiceURL, sagaServiceURL, marketingServiceURL string, logger zerolog.Logger) *Handler {
	return &Handler{
		client:              client,
		orderServiceURL:     orderServiceURL,
		inventoryServiceURL: inventoryServiceURL,
		sagaServiceURL:      sagaServiceURL,
		marketingServiceURL: marketingServiceURL,
		logger:              logger.With().Str("component", "gateway_handler").Logger(),
	}
}

// Routes mounts the gateway's routes on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/api/products", h.listProducts)
	r.Get("/api/products/{product_id}", h.getProduct)
	r.Post("/api/orders", h.placeOrder)
	r.Get("/api/orders", h.listOrders)
	r.Get("/api/orders/{order_id}", h.getOrder)
	r.Get("/api/marketing/overview", h.marketingOverview)
	r.Get("/api/marketing/customers", h.marketingCustomers)
	r.Get("/api/marketing/products", h.marketingProducts)
	r.Get("/api/marketing/daily", h.marketingDaily)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	var out interface{}
	if err := h.client.Get(r.Context(), h.inventoryServiceURL+"/queries/products", &out); err != nil {
		h.writeDownstreamError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "product_id")
	var out interface{}
	if err := h.client.Get(r.Context(), fmt.Sprintf("%s/queries/products/%s", h.inventoryServiceURL, productID), &out); err != nil {
		h.writeDownstreamError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// placeOrderRequest is the gateway's frontend-facing request body: just
// customer, product, and quantity. The gateway fetches the product's
// price and name, assigns the order_id, and computes total_price before
// delegating to the saga orchestrator — the frontend never sees the
// saga or the pricing calculation.
type placeOrderRequest struct {
	CustomerName string    `json:"customer_name" validate:"required"`
	ProductID    uuid.UUID `json:"product_id" validate:"required"`
	Quantity     int       `json:"quantity" validate:"required,gt=0"`
}

type productView struct {
	ProductName string          `json:"product_name"`
	Price       decimal.Decimal `json:"price"`
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, map[string]string{"detail": "malformed request body"})
		return
	}

	var product productView
	if err := h.client.Get(r.Context(), fmt.Sprintf("%s/queries/products/%s", h.inventoryServiceURL, req.ProductID), &product); err != nil {
		h.writeDownstreamError(w, err)
		return
	}

	orderID := uuid.New()
	totalPrice := product.Price.Mul(decimal.NewFromInt(int64(req.Quantity)))

	sagaCmd := map[string]interface{}{
		"order_id":      orderID,
		"customer_name": req.CustomerName,
		"product_id":    req.ProductID,
		"product_name":  product.ProductName,
		"quantity":      req.Quantity,
		"total_price":   totalPrice,
	}

	var sagaResult struct {
		Success bool          `json:"success"`
		SagaLog []interface{} `json:"saga_log"`
	}
	if err := h.client.Post(r.Context(), h.sagaServiceURL+"/saga/place-order", sagaCmd, &sagaResult); err != nil {
		h.writeDownstreamError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"order_id": orderID,
		"success":  sagaResult.Success,
		"saga_log": sagaResult.SagaLog,
	})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	var out interface{}
	if err := h.client.Get(r.Context(), h.orderServiceURL+"/queries/orders", &out); err != nil {
		h.writeDownstreamError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "order_id")
	var out interface{}
	if err := h.client.Get(r.Context(), fmt.Sprintf("%s/queries/orders/%s", h.orderServiceURL, orderID), &out); err != nil {
		h.writeDownstreamError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) marketingOverview(w http.ResponseWriter, r *http.Request) {
	h.proxyMarketing(w, r, "/queries/marketing/overview")
}

func (h *Handler) marketingCustomers(w http.ResponseWriter, r *http.Request) {
	h.proxyMarketing(w, r, "/queries/marketing/customers")
}

func (h *Handler) marketingProducts(w http.ResponseWriter, r *http.Request) {
	h.proxyMarketing(w, r, "/queries/marketing/products")
}

func (h *Handler) marketingDaily(w http.ResponseWriter, r *http.Request) {
	h.proxyMarketing(w, r, "/queries/marketing/daily")
}

func (h *Handler) proxyMarketing(w http.ResponseWriter, r *http.Request, path string) {
	var out interface{}
	if err := h.client.Get(r.Context(), h.marketingServiceURL+path, &out); err != nil {
		h.writeDownstreamError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// writeDownstreamError relays a downstream's own status code when
// available (e.g. a 404 from the order authority), otherwise 502.
func (h *Handler) writeDownstreamError(w http.ResponseWriter, err error) {
	var statusErr *gateway.StatusError
	if errors.As(err, &statusErr) {
		httpx.WriteJSON(w, statusErr.StatusCode, map[string]string{"detail": statusErr.Body})
		return
	}
	h.logger.Error().Err(err).Msg("downstream call failed")
	httpx.WriteJSON(w, http.StatusBadGateway, map[string]string{"detail": "downstream service unavailable"})
}
