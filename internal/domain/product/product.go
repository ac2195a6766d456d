package product

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("product: not found")
	ErrConflict          = errors.New("product: already exists")
	ErrInvalidQuantity   = errors.New("product: quantity must be greater than zero")
	ErrInsufficientStock = errors.New("product: insufficient stock")
	ErrInvalidStock      = errors.New("product: stock must be zero or greater")
	ErrStockLimit        = errors.New("product: stock would exceed the limit")
	ErrInvalidPrice      = errors.New("product: price must be zero or greater")
	ErrPriceRange        = errors.New("product: price out of range")
	ErrNameRequired      = errors.New("product: name is required")
)

// Storage columns hold stock as a 32-bit integer and money as NUMERIC(20,4).
const (
	MaxStock      = math.MaxInt32
	MaxPriceScale = 4
	maxPriceExp   = 16
)

// MaxAmount is the first amount too large to store.
var MaxAmount = decimal.New(1, maxPriceExp)

type Product struct {
	ID        string
	Name      string
	Stock     int
	Price     decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

func New(id, name string, stock int, price decimal.Decimal) (*Product, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrNameRequired
	}
	if stock < 0 {
		return nil, ErrInvalidStock
	}
	if stock > MaxStock {
		return nil, ErrStockLimit
	}
	if err := ValidatePrice(price); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Product{
		ID:        id,
		Name:      strings.TrimSpace(name),
		Stock:     stock,
		Price:     price,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// CanFulfil reports whether quantity units can be taken from the current stock.
func (p *Product) CanFulfil(quantity int) bool {
	return quantity > 0 && quantity <= p.Stock
}

// ReduceStock takes quantity units out of stock. Stock never goes below zero.
func (p *Product) ReduceStock(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if quantity > p.Stock {
		return ErrInsufficientStock
	}
	p.Stock -= quantity
	p.touch()
	return nil
}

// ValidatePrice accepts non-negative prices below MaxAmount with at most
// MaxPriceScale fractional digits.
func ValidatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return ErrInvalidPrice
	}
	if price.IsZero() {
		return nil
	}
	// Exponent bounds first: comparing against wildly scaled values allocates 10^|exp|.
	if exp := price.Exponent(); exp > maxPriceExp || exp < -(maxPriceExp+MaxPriceScale) {
		return ErrPriceRange
	}
	if price.GreaterThanOrEqual(MaxAmount) || !price.Equal(price.Truncate(MaxPriceScale)) {
		return ErrPriceRange
	}
	return nil
}

// Restock adds quantity units. Stock never exceeds MaxStock.
func (p *Product) Restock(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if quantity > MaxStock-p.Stock {
		return ErrStockLimit
	}
	p.Stock += quantity
	p.touch()
	return nil
}

// TotalFor prices quantity units at the current unit price.
func (p *Product) TotalFor(quantity int) decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(int64(quantity)))
}

func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

func (p *Product) touch() {
	p.UpdatedAt = time.Now().UTC()
}
