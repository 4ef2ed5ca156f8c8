package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/ariefcatur/go-warehouse-orders/internal/auth"
	"github.com/ariefcatur/go-warehouse-orders/internal/catalog"
	"github.com/ariefcatur/go-warehouse-orders/internal/orders"
	"github.com/ariefcatur/go-warehouse-orders/internal/payments"
	"github.com/ariefcatur/go-warehouse-orders/internal/reviews"
	"github.com/ariefcatur/go-warehouse-orders/internal/users"
)

var errBadBody = errors.New("invalid json body")

type envelope struct {
	Success bool      `json:"success"`
	Data    any       `json:"data"`
	Error   *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Data: v})
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		log.Printf("[http] %s %s: %v", r.Method, r.URL.Path, err)
		if code == "upstream_failure" {
			msg = "internal error"
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Error: &apiError{Code: code, Message: msg}})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, orders.ErrForbidden), errors.Is(err, users.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, orders.ErrNotFound),
		errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, users.ErrUserNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, orders.ErrInsufficientStock):
		return http.StatusConflict, "insufficient_stock"
	case errors.Is(err, errBadBody),
		errors.Is(err, orders.ErrInvalidQuantity),
		errors.Is(err, orders.ErrInvalidOrder),
		errors.Is(err, orders.ErrInvalidMode),
		errors.Is(err, orders.ErrInvalidPayment),
		errors.Is(err, catalog.ErrInvalidProduct),
		errors.Is(err, users.ErrInvalidRole),
		errors.Is(err, users.ErrInvalidUser),
		errors.Is(err, reviews.ErrInvalidReview),
		errors.Is(err, payments.ErrInvalidAmount):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, orders.ErrInsertFailed):
		return http.StatusInternalServerError, "insert_failed"
	case errors.Is(err, payments.ErrGatewayUnavailable):
		return http.StatusServiceUnavailable, "unavailable"
	}
	return http.StatusInternalServerError, "upstream_failure"
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	return nil
}
