package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fjod/go_cart/checkout-service/internal/orders"
	"github.com/fjod/go_cart/checkout-service/internal/store"
	"github.com/go-chi/chi/v5"
)

type OrderReader interface {
	GetOrderByCode(ctx context.Context, orderCode string) (*orders.OrderView, error)
}

type OrdersHandler struct {
	orders    OrderReader
	customers CustomerReader
	timeout   time.Duration
}

func NewOrdersHandler(orders OrderReader, customers CustomerReader, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{orders: orders, customers: customers, timeout: timeout}
}

// GET /api/v1/orders/{order_code}
// Only the customer signed in on the session can read the order; anyone else
// gets the same 404 as for an unknown code.
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderCode := chi.URLParam(r, "order_code")
	if orderCode == "" {
		respondError(w, http.StatusBadRequest, "missing_order_code", "order_code is required")
		return
	}

	customer, err := h.customers.GetCustomer(ctx, getSessionID(r.Context()))
	if errors.Is(err, store.ErrNotFound) {
		handleError(ctx, w, orders.ErrOrderNotFound)
		return
	}
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	view, err := h.orders.GetOrderByCode(ctx, orderCode)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	if view.Order == nil || customer.ID == "" || view.Order.CustomerID != customer.ID {
		handleError(ctx, w, orders.ErrOrderNotFound)
		return
	}
	respondJSON(w, http.StatusOK, view)
}
