package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/ariefcatur/go-warehouse-orders/internal/reviews"
	"github.com/go-chi/chi/v5"
)

type ReviewsHandler struct {
	Reviews reviews.Store
}

func (h *ReviewsHandler) Register(r chi.Router) {
	r.Get("/reviews", h.list)
	r.Post("/reviews", h.add)
}

func (h *ReviewsHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.Reviews.List(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *ReviewsHandler) add(w http.ResponseWriter, r *http.Request) {
	var in reviews.Review
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	rv, err := reviews.Add(ctx, h.Reviews, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rv)
}
