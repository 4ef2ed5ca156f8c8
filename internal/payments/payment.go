package payments

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is one ledger row recorded when an order is paid.
type Payment struct {
	ID            string          `json:"id"`
	OrderID       string          `json:"order_id"`
	TransactionID string          `json:"transaction_id"`
	Email         string          `json:"email"`
	Amount        decimal.Decimal `json:"amount"`
	CreatedAt     time.Time       `json:"created_at"`
}
