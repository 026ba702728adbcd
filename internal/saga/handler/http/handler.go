// Package http exposes the orchestrator's single route: place an order
// and run the saga to completion (spec.md §6).
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/ordersaga/internal/httpx"
	"github.com/cypherlabdev/ordersaga/internal/saga"
)

// Handler wires the saga orchestrator's one route.
type Handler struct {
	orchestrator *saga.Orchestrator
	validate     *validator.Validate
	logger       zerolog.Logger
}

// New builds a Handler.
func New(orchestrator *saga.Orchestrator, logger zerolog.Logger) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		validate:     validator.New(),
		logger:       logger.With().Str("component", "saga_handler").Logger(),
	}
}

// Routes mounts the saga route on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/saga/place-order", h.placeOrder)
}

// placeOrder answers 400 for a malformed or invalid request body; once
// the saga runs it always answers 200: the saga's outcome is conveyed in
// the response body's success field, never in the status code.
func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var cmd saga.PlaceOrderCommand
	if err := httpx.DecodeJSON(r, &cmd); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, map[string]string{"detail": "malformed request body"})
		return
	}
	if err := h.validate.Struct(cmd); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}

	result := h.orchestrator.Execute(r.Context(), cmd)
	httpx.WriteJSON(w, http.StatusOK, result)
}
