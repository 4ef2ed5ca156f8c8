package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderPlaced    = "OrderPlaced"
	EventOrderCancelled = "OrderCancelled"
	EventOrderDeleted   = "OrderDeleted"
	EventOrderPaid      = "OrderPaid"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

type OrderPlacedPayload struct {
	OrderID   string `json:"order_id"`
	User      string `json:"user"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type OrderRemovedPayload struct {
	OrderID       string `json:"order_id"`
	User          string `json:"user"`
	ProductID     string `json:"product_id"`
	Quantity      int    `json:"quantity"`
	StockRestored bool   `json:"stock_restored"`
}

type OrderPaidPayload struct {
	OrderID       string `json:"order_id"`
	User          string `json:"user"`
	TransactionID string `json:"transaction_id"`
}
