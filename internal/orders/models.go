package orders

import (
	"time"

	"github.com/ariefcatur/go-warehouse-orders/internal/catalog"
	"github.com/shopspring/decimal"
)

// ProductSnapshot is the product as it was when the order was placed.
type ProductSnapshot struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

type Order struct {
	ID            string          `json:"id"`
	User          string          `json:"user"`
	ProductID     string          `json:"product_id"`
	Quantity      int             `json:"quantity"`
	Phone         string          `json:"phone"`
	Address       string          `json:"address"`
	Paid          bool            `json:"paid"`
	TransactionID string          `json:"transaction_id"`
	Product       ProductSnapshot `json:"product"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// OrderView pairs an order with the product's current record. Current is
// nil when the product has been deleted since placement.
type OrderView struct {
	Order
	Current *catalog.Product `json:"current_product"`
}

type PlaceRequest struct {
	User      string `json:"user"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Requester is the authenticated caller of an order operation.
type Requester struct {
	Email string
	Admin bool
}

func (r Requester) owns(o Order) bool {
	return r.Admin || (r.Email != "" && r.Email == o.User)
}
