package order

import (
	"fmt"
	"math"
	"time"
)

// Order is a placed order. Items are a snapshot of the catalog at purchase time and
// never change afterwards.
type Order struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	TotalPrice float64   `json:"total_price"`
	OrderedAt  time.Time `json:"ordered_at"`
	Items      []Item    `json:"items"`
}

type Item struct {
	ID           int64   `json:"id"`
	OrderID      int64   `json:"order_id"`
	ProductID    int64   `json:"product_id"`
	ProductTitle string  `json:"product_title"`
	Quantity     int     `json:"quantity"`
	Price        float64 `json:"price"`
	Subtotal     float64 `json:"subtotal"`
}

// Line is one requested product and quantity.
type Line struct {
	ProductID int64
	Quantity  int
}

// ProductNotFoundError points at the first line whose product does not exist.
type ProductNotFoundError struct {
	Index     int
	ProductID int64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("items.%d.product_id: product %d not found", e.Index, e.ProductID)
}

// InvalidQuantityError points at a line with a quantity below one.
type InvalidQuantityError struct {
	Index    int
	Quantity int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("items.%d.quantity: must be at least 1, got %d", e.Index, e.Quantity)
}

// MaxAmount is the largest value a NUMERIC(12,2) money column holds.
const MaxAmount = 9999999999.99

// AmountOutOfRangeError reports a line subtotal, or the order total when Index
// is -1, that does not fit a money column.
type AmountOutOfRangeError struct {
	Index  int
	Amount float64
}

func (e *AmountOutOfRangeError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("total_price: %.2f exceeds %.2f", e.Amount, MaxAmount)
	}
	return fmt.Sprintf("items.%d.subtotal: %.2f exceeds %.2f", e.Index, e.Amount, MaxAmount)
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
