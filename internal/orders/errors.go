package orders

import "errors"

var (
	ErrNotFound          = errors.New("order not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInsertFailed      = errors.New("order insert failed")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrInvalidOrder      = errors.New("invalid order")
	ErrInvalidMode       = errors.New("unknown removal mode")
	ErrInvalidPayment    = errors.New("invalid payment")
)
