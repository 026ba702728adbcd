// Package http exposes the order authority's seven HTTP routes over chi:
// three commands, two read-model queries, two event-store inspection
// routes (spec.md §6).
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/ordersaga/internal/eventstore"
	"github.com/cypherlabdev/ordersaga/internal/httpx"
	"github.com/cypherlabdev/ordersaga/internal/order/repository"
	"github.com/cypherlabdev/ordersaga/internal/order/service"
)

// Handler wires the order authority's command/query/event routes.
type Handler struct {
	service  *service.Service
	repo     *repository.Repository
	store    *eventstore.Store
	validate *validator.Validate
	logger   zerolog.Logger
}

// New builds a Handler.
func New(svc *service.Service, repo *repository.Repository, store *eventstore.Store, logger zerolog.Logger) *Handler {
	return &Handler{
		service:  svc,
		repo:     repo,
		store:    store,
		validate: validator.New(),
		logger:   logger.With().Str("component", "order_handler").Logger(),
	}
}

// Routes mounts the order authority's routes on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/commands/orders", h.createOrder)
	r.Post("/commands/orders/{order_id}/confirm", h.confirmOrder)
	r.Post("/commands/orders/{order_id}/cancel", h.cancelOrder)
	r.Get("/queries/orders", h.listOrders)
	r.Get("/queries/orders/{order_id}", h.getOrder)
	r.Get("/events", h.listAllEvents)
	r.Get("/events/{aggregate_id}", h.listAggregateEvents)
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req service.CreateOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, map[string]string{"detail": "malformed request body"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}

	result, err := h.service.CreateOrder(r.Context(), req)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) confirmOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "order_id"))
	if err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid order_id"})
		return
	}

	result, err := h.service.ConfirmOrder(r.Context(), orderID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "order_id"))
	if err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid order_id"})
		return
	}

	var req service.CancelOrderRequest
	_ = httpx.DecodeJSON(r, &req)

	result, err := h.service.CancelOrder(r.Context(), orderID, req.Reason)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	rows, err := h.repo.List(r.Context())
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, rows)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "order_id"))
	if err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid order_id"})
		return
	}

	row, err := h.repo.GetByID(r.Context(), orderID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, row)
}

func (h *Handler) listAllEvents(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.LoadAll(r.Context())
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, records)
}

func (h *Handler) listAggregateEvents(w http.ResponseWriter, r *http.Request) {
	aggregateID, err := uuid.Parse(chi.URLParam(r, "aggregate_id"))
	if err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid aggregate_id"})
		return
	}

	records, err := h.store.Load(r.Context(), aggregateID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, records)
}
