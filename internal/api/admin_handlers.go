package api

import (
	"net/http"

	"github.com/example/eri-mobile-shop/internal/command"
	"github.com/example/eri-mobile-shop/internal/domain/product"
	"github.com/example/eri-mobile-shop/internal/query"
	"github.com/go-chi/chi/v5"
)

// AdminHandlers serves catalog, order and settings management
type AdminHandlers struct {
	cmdHandler   *command.Handler
	queryHandler *query.Handler
}

func NewAdminHandlers(cmdHandler *command.Handler, queryHandler *query.Handler) *AdminHandlers {
	return &AdminHandlers{cmdHandler: cmdHandler, queryHandler: queryHandler}
}

// Products

func (h *AdminHandlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.queryHandler.ListProducts(r.Context(), query.ProductFilter{
		Category: r.URL.Query().Get("category"),
		Sort:     r.URL.Query().Get("sort"),
	})
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *AdminHandlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.queryHandler.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *AdminHandlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var cmd command.CreateProduct
	if !decodeJSON(w, r, &cmd) {
		return
	}

	p, err := h.cmdHandler.CreateProduct(r.Context(), cmd)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

func (h *AdminHandlers) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var details product.Details
	if !decodeJSON(w, r, &details) {
		return
	}

	p, err := h.cmdHandler.UpdateProduct(r.Context(), command.UpdateProduct{
		ProductID: chi.URLParam(r, "id"),
		Details:   details,
	})
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *AdminHandlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.cmdHandler.DeleteProduct(r.Context(), command.DeleteProduct{ProductID: chi.URLParam(r, "id")}); err != nil {
		respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Orders

func (h *AdminHandlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.queryHandler.ListOrders(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

func (h *AdminHandlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.queryHandler.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

func (h *AdminHandlers) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var cmd command.ChangeOrderStatus
	if !decodeJSON(w, r, &cmd) {
		return
	}
	cmd.OrderID = chi.URLParam(r, "id")

	o, err := h.cmdHandler.ChangeOrderStatus(r.Context(), cmd)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

func (h *AdminHandlers) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.cmdHandler.DeleteOrder(r.Context(), command.DeleteOrder{OrderID: chi.URLParam(r, "id")}); err != nil {
		respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Settings

func (h *AdminHandlers) GetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.queryHandler.GetSettings(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, s)
}

func (h *AdminHandlers) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var cmd command.UpdateSettings
	if !decodeJSON(w, r, &cmd) {
		return
	}

	s, err := h.cmdHandler.UpdateSettings(r.Context(), cmd)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, s.Settings)
}

// Dashboard

func (h *AdminHandlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.queryHandler.Dashboard(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, d)
}
