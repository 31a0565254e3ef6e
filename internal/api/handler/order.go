package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/mailpanel/internal/api/request"
	"github.com/edvin/mailpanel/internal/api/response"
	"github.com/edvin/mailpanel/internal/core"
	"github.com/edvin/mailpanel/internal/model"
)

type Order struct {
	orders *core.OrderService
}

func NewOrder(orders *core.OrderService) *Order {
	return &Order{orders: orders}
}

// Create files a purchase order for a package.
func (h *Order) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	var req request.CreateOrder
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err := h.orders.Create(r.Context(), claims.Sub, core.OrderInput{
		PackageID:     req.PackageID,
		TermMonths:    req.TermMonths,
		PaymentMethod: req.PaymentMethod,
		SenderNumber:  req.SenderNumber,
		TransactionID: req.TransactionID,
	})
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, order)
}

// ListMine returns the caller's orders.
func (h *Order) ListMine(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	orders, err := h.orders.ListByUser(r.Context(), claims.Sub)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{"items": orders})
}

// ListAll returns every order. Admin.
func (h *Order) ListAll(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListAll(r.Context())
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{"items": orders})
}

// Approve activates a pending order. Admin.
func (h *Order) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err := h.orders.Approve(r.Context(), id)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, order)
}

// Reject declines a pending order. Admin.
func (h *Order) Reject(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err := h.orders.Reject(r.Context(), id)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, order)
}
