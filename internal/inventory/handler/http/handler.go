// Package http exposes the inventory authority's four HTTP routes over
// chi: reserve, release, and two read-model queries (spec.md §6).
package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/ordersaga/internal/apperrors"
	"github.com/cypherlabdev/ordersaga/internal/httpx"
	"github.com/cypherlabdev/ordersaga/internal/inventory/repository"
	"github.com/cypherlabdev/ordersaga/internal/inventory/service"
)

// Handler wires the inventory authority's command/query routes.
type Handler struct {
	service  *service.Service
	repo     *repository.Repository
	validate *validator.Validate
	logger   zerolog.Logger
}

// New builds a Handler.
func New(svc *service.Service, repo *repository.Repository, logger zerolog.Logger) *Handler {
	return &Handler{
		service:  svc,
		repo:     repo,
		validate: validator.New(),
		logger:   logger.With().Str("component", "inventory_handler").Logger(),
	}
}

// Routes mounts the inventory authority's routes on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/commands/inventory/{product_id}/reserve", h.reserve)
	r.Post("/commands/inventory/{product_id}/release", h.release)
	r.Get("/queries/products", h.listProducts)
	r.Get("/queries/products/{product_id}", h.getProduct)
}

func (h *Handler) reserve(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(chi.URLParam(r, "product_id"))
	if err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid product_id"})
		return
	}

	var req service.ReserveRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, map[string]string{"detail": "malformed request body"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}

	result, err := h.service.ReserveInventory(r.Context(), productID, req)
	if err != nil {
		if errors.Is(err, apperrors.ErrBusinessReject) {
			httpx.WriteJSON(w, http.StatusConflict, map[string]string{"detail": result.Reason})
			return
		}
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) release(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(chi.URLParam(r, "product_id"))
	if err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid product_id"})
		return
	}

	var req service.ReleaseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, map[string]string{"detail": "malformed request body"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}

	result, err := h.service.ReleaseInventory(r.Context(), productID, req)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	rows, err := h.repo.List(r.Context())
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, rows)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(chi.URLParam(r, "product_id"))
	if err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid product_id"})
		return
	}

	row, err := h.repo.GetByID(r.Context(), productID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, row)
}
