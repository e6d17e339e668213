package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tapcardapp/tapcard/internal/db"
	"github.com/tapcardapp/tapcard/internal/models"
)

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "orderId")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err := h.orders.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrOrderNotFound) {
			respondError(w, http.StatusNotFound, "order not found")
			return
		}
		h.loggerFromContext(r.Context()).Error("failed to get order", "error", err, "order_id", id)
		respondError(w, http.StatusInternalServerError, "failed to get order")
		return
	}
	if !h.requireSelfOrAdmin(w, r, order.UserID) {
		return
	}

	respondJSON(w, http.StatusOK, "ok", order)
}

func (h *Handlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.List(r.Context(), listLimit(r))
	if err != nil {
		h.loggerFromContext(r.Context()).Error("failed to list orders", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}

	respondJSON(w, http.StatusOK, "ok", orders)
}

func (h *Handlers) ListOrdersByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !h.requireSelfOrAdmin(w, r, userID) {
		return
	}

	orders, err := h.orders.ListByUser(r.Context(), userID)
	if err != nil {
		h.loggerFromContext(r.Context()).Error("failed to list user orders", "error", err, "user_id", userID)
		respondError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}

	respondJSON(w, http.StatusOK, "ok", orders)
}

type updateOrderStatusRequest struct {
	OrderStatus string `json:"order_status" validate:"required"`
}

// UpdateOrderStatus moves an order along Pending -> Shipped -> Delivered.
// Anything outside the known statuses is a 400; a skipped step is a 409.
func (h *Handlers) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "orderId")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req updateOrderStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	status := models.OrderStatus(req.OrderStatus)
	if !models.ValidOrderStatus(status) {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown order status %q", req.OrderStatus))
		return
	}

	if err := h.orders.UpdateStatus(r.Context(), id, status); err != nil {
		switch {
		case errors.Is(err, db.ErrOrderNotFound):
			respondError(w, http.StatusNotFound, "order not found")
		case errors.Is(err, db.ErrInvalidStatusTransition):
			respondError(w, http.StatusConflict, err.Error())
		default:
			h.loggerFromContext(r.Context()).Error("failed to update order status", "error", err, "order_id", id)
			respondError(w, http.StatusInternalServerError, "failed to update order status")
		}
		return
	}

	respondJSON(w, http.StatusOK, "updated", map[string]any{
		"order_id":     id,
		"order_status": status,
	})
}

func (h *Handlers) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "orderId")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.orders.SoftDelete(r.Context(), id); err != nil {
		if errors.Is(err, db.ErrOrderNotFound) {
			respondError(w, http.StatusNotFound, "order not found")
			return
		}
		h.loggerFromContext(r.Context()).Error("failed to delete order", "error", err, "order_id", id)
		respondError(w, http.StatusInternalServerError, "failed to delete order")
		return
	}

	respondJSON(w, http.StatusOK, "deleted", nil)
}
