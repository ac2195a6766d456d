package order

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestNewValidates(t *testing.T) {
	if _, err := New("o-1", "", 1, decimal.Zero); !errors.Is(err, ErrProductIDRequired) {
		t.Fatalf("expected product id required, got %v", err)
	}
	if _, err := New("o-1", "p-1", 0, decimal.Zero); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected invalid quantity, got %v", err)
	}
	if _, err := New("o-1", "p-1", 1, decimal.NewFromInt(-1)); !errors.Is(err, ErrInvalidTotal) {
		t.Fatalf("expected invalid total, got %v", err)
	}
	if _, err := New("o-1", "p-1", 1, decimal.New(1, 16)); !errors.Is(err, ErrTotalRange) {
		t.Fatalf("expected total out of range, got %v", err)
	}

	o, err := New("o-1", "p-1", 3, decimal.NewFromInt(300))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if o.CreatedAt.IsZero() || !o.TotalPrice.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("unexpected order %+v", o)
	}
}

func TestOrderPlacedEvent(t *testing.T) {
	o, _ := New("o-1", "p-1", 3, decimal.NewFromInt(300))
	e := NewOrderPlacedEvent(o, 7)

	if e.EventName() != "order.placed" || e.EventKey() != "o-1" {
		t.Fatalf("unexpected event identity %q/%q", e.EventName(), e.EventKey())
	}
	if e.RemainingStock != 7 || e.Quantity != 3 {
		t.Fatalf("unexpected event %+v", e)
	}
	if !e.OccurredAt.Equal(o.CreatedAt) {
		t.Fatalf("expected event time %v, got %v", o.CreatedAt, e.OccurredAt)
	}
}
