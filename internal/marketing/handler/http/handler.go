// Package http exposes the marketing projector's read-only query
// routes (spec.md §5.5, recovered from
// original_source/services/marketing/app/main.py — dropped by the
// distillation but present in the original system).
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/ordersaga/internal/httpx"
	"github.com/cypherlabdev/ordersaga/internal/marketing/domain"
	"github.com/cypherlabdev/ordersaga/internal/marketing/repository"
)

// Handler wires the marketing projector's query routes.
type Handler struct {
	repo   *repository.Repository
	logger zerolog.Logger
}

// New builds a Handler.
func New(repo *repository.Repository, logger zerolog.Logger) *Handler {
	return &Handler{repo: repo, logger: logger.With().Str("component", "marketing_handler").Logger()}
}

// Routes mounts the marketing query routes on r. This service has no
// command routes: it is CQRS read-side only.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/queries/marketing/customers", h.listCustomers)
	r.Get("/queries/marketing/customers/{customer_name}", h.getCustomer)
	r.Get("/queries/marketing/products", h.listProducts)
	r.Get("/queries/marketing/daily", h.listDaily)
	r.Get("/queries/marketing/overview", h.overview)
}

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	rows, err := h.repo.ListCustomerSummaries(r.Context())
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, rows)
}

func (h *Handler) getCustomer(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "customer_name")
	row, err := h.repo.GetCustomerSummary(r.Context(), name)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, row)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	rows, err := h.repo.ListProductPopularity(r.Context())
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, rows)
}

func (h *Handler) listDaily(w http.ResponseWriter, r *http.Request) {
	rows, err := h.repo.ListDailySales(r.Context())
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, rows)
}

// overview aggregates the top 5 customers, top 5 products, and the
// most recent 7 days of sales into one BFF-style response.
func (h *Handler) overview(w http.ResponseWriter, r *http.Request) {
	customers, err := h.repo.ListCustomerSummaries(r.Context())
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	products, err := h.repo.ListProductPopularity(r.Context())
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	daily, err := h.repo.ListDailySales(r.Context())
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	var overview domain.Overview
	for _, c := range customers {
		overview.Summary.TotalRevenue = overview.Summary.TotalRevenue.Add(c.TotalRevenue)
	}
	overview.Summary.TotalCustomers = len(customers)
	overview.Summary.TotalProductTypes = len(products)
	overview.TopCustomers = firstN(customers, 5)
	overview.TopProducts = firstN(products, 5)
	overview.RecentDailySales = firstN(daily, 7)

	httpx.WriteJSON(w, http.StatusOK, overview)
}

func firstN[T any](items []T, n int) []T {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
