package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/ariefcatur/go-warehouse-orders/internal/payments"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type PaymentsHandler struct {
	// Gateway is nil when no payment provider is configured.
	Gateway  payments.Gateway
	Currency string
	Gate     *Gate
}

type paymentIntentReq struct {
	Price decimal.Decimal `json:"price"`
}

type paymentIntentResp struct {
	ClientSecret string `json:"client_secret"`
	AmountCents  int64  `json:"amount_cents"`
	Currency     string `json:"currency"`
}

func (h *PaymentsHandler) Register(r chi.Router) {
	r.With(h.Gate.RequireUser).Post("/create-payment-intent", h.createIntent)
}

func (h *PaymentsHandler) createIntent(w http.ResponseWriter, r *http.Request) {
	var req paymentIntentReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := payments.AmountInCents(req.Price)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if h.Gateway == nil {
		writeError(w, r, payments.ErrGatewayUnavailable)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	secret, err := h.Gateway.CreateIntent(ctx, amount, h.Currency)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, paymentIntentResp{ClientSecret: secret, AmountCents: amount, Currency: h.Currency})
}
