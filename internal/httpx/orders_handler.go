package httpx

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/ariefcatur/go-warehouse-orders/internal/audit"
	"github.com/ariefcatur/go-warehouse-orders/internal/orders"
	"github.com/go-chi/chi/v5"
)

type OrdersHandler struct {
	Orders *orders.Manager
	Gate   *Gate
	// Trail is optional; without it the events route is not mounted.
	Trail audit.Store
}

type recordPaymentReq struct {
	TransactionID string `json:"transaction_id"`
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.Gate.RequireUser)
		r.Post("/placeorder", h.placeOrder)
		r.Get("/orders/{user}", h.listForUser)
		r.Get("/order/{id}", h.getOrder)
		r.Patch("/order/{id}", h.recordPayment)
		r.Delete("/order/{id}/{mode}", h.removeOrder)
		if h.Trail != nil {
			r.Get("/order/{id}/events", h.orderEvents)
		}
	})
}

func (h *OrdersHandler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req orders.PlaceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	who, err := h.Gate.requester(r.WithContext(ctx))
	if err != nil {
		writeError(w, r, err)
		return
	}
	req.User = strings.ToLower(strings.TrimSpace(req.User))
	if req.User == "" {
		req.User = who.Email
	}
	if req.User != who.Email {
		writeError(w, r, orders.ErrForbidden)
		return
	}

	o, err := h.Orders.PlaceOrder(ctx, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (h *OrdersHandler) listForUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	who, err := h.Gate.requester(r.WithContext(ctx))
	if err != nil {
		writeError(w, r, err)
		return
	}
	views, err := h.Orders.GetOrdersForUser(ctx, strings.ToLower(chi.URLParam(r, "user")), who)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	who, err := h.Gate.requester(r.WithContext(ctx))
	if err != nil {
		writeError(w, r, err)
		return
	}
	o, err := h.Orders.GetOrder(ctx, chi.URLParam(r, "id"), who)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) recordPayment(w http.ResponseWriter, r *http.Request) {
	var req recordPaymentReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	who, err := h.Gate.requester(r.WithContext(ctx))
	if err != nil {
		writeError(w, r, err)
		return
	}
	o, err := h.Orders.RecordPayment(ctx, chi.URLParam(r, "id"), req.TransactionID, who)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) removeOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	who, err := h.Gate.requester(r.WithContext(ctx))
	if err != nil {
		writeError(w, r, err)
		return
	}
	mode := orders.RemoveMode(chi.URLParam(r, "mode"))
	o, err := h.Orders.CancelOrDeleteOrder(ctx, chi.URLParam(r, "id"), mode, who)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// orderEvents serves the trail of an order, including removed ones. Access
// follows the user recorded in the events.
func (h *OrdersHandler) orderEvents(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	who, err := h.Gate.requester(r.WithContext(ctx))
	if err != nil {
		writeError(w, r, err)
		return
	}
	trail, err := h.Trail.ListByOrder(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if len(trail) == 0 {
		writeError(w, r, orders.ErrNotFound)
		return
	}
	if !who.Admin && audit.Owner(trail) != who.Email {
		writeError(w, r, orders.ErrForbidden)
		return
	}
	writeJSON(w, http.StatusOK, trail)
}
