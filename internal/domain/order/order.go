package order

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("order: not found")
	ErrConflict          = errors.New("order: already exists")
	ErrInvalidQuantity   = errors.New("order: quantity must be greater than zero")
	ErrInvalidTotal      = errors.New("order: total price must be zero or greater")
	ErrTotalRange        = errors.New("order: total price out of range")
	ErrProductIDRequired = errors.New("order: product id is required")
)

// maxTotal matches the NUMERIC(20,4) total_price column.
var maxTotal = decimal.New(1, 16)

// Order is immutable once saved.
type Order struct {
	ID         string
	ProductID  string
	Quantity   int
	TotalPrice decimal.Decimal
	CreatedAt  time.Time
}

func New(id, productID string, quantity int, totalPrice decimal.Decimal) (*Order, error) {
	if productID == "" {
		return nil, ErrProductIDRequired
	}
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if totalPrice.IsNegative() {
		return nil, ErrInvalidTotal
	}
	if totalPrice.GreaterThanOrEqual(maxTotal) {
		return nil, ErrTotalRange
	}

	return &Order{
		ID:         id,
		ProductID:  productID,
		Quantity:   quantity,
		TotalPrice: totalPrice,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	return &c
}
