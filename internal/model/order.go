package model

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Order represents a persisted order header.
type Order struct {
	ID        int64      `json:"id" db:"id"`
	UserID    *int64     `json:"userId" db:"user_id"`
	Total     int64      `json:"total" db:"total"`
	CreatedAt *time.Time `json:"createdAt,omitempty" db:"created_at"`
}

// OrderLine represents a line item in an order. Price and discount are the
// values captured at checkout time.
type OrderLine struct {
	ID        int64            `json:"-" db:"id"`
	OrderID   int64            `json:"-" db:"order_id"`
	ProductID int64            `json:"productId" db:"product_id"`
	Quantity  int              `json:"quantity" db:"quantity"`
	Price     decimal.Decimal  `json:"price" db:"price"`
	Discount  *decimal.Decimal `json:"discount,omitempty" db:"discount"`
}

// CartItem is a single caller-supplied cart entry.
type CartItem struct {
	ProductID int64           `json:"id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Discount  decimal.Decimal `json:"discount"`
}

// MaxQuantity bounds a line quantity and the summed quantity per product.
// Quantities are stored in INTEGER columns.
const MaxQuantity = math.MaxInt32

// RequestedQuantity returns the quantity to allocate. Non-positive values are
// raised to one.
func (c CartItem) RequestedQuantity() int {
	if c.Quantity < 1 {
		return 1
	}
	return c.Quantity
}

// CheckoutRequest represents the request payload for placing an order.
type CheckoutRequest struct {
	UserID *int64     `json:"userId,omitempty"`
	Items  []CartItem `json:"items"`

	// IdempotencyKey is taken from the Idempotency-Key header, not the body.
	IdempotencyKey string `json:"-"`
}

// CheckoutResult represents the response payload for a successful checkout.
type CheckoutResult struct {
	OrderID int64 `json:"orderId"`
	Total   int64 `json:"total"`
}

// OrderResponse represents the response payload for an order lookup.
type OrderResponse struct {
	Order
	Items []OrderLine `json:"items"`
}
