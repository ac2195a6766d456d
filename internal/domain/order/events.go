package order

import (
	"time"

	"github.com/shopspring/decimal"
)

const EventOrderPlaced = "order.placed"

// OrderPlacedEvent is emitted once a PlaceOrder transaction has committed.
// OccurredAt is the order's creation time, which orders it against other stock readings.
type OrderPlacedEvent struct {
	OrderID        string          `json:"order_id"`
	ProductID      string          `json:"product_id"`
	Quantity       int             `json:"quantity"`
	TotalPrice     decimal.Decimal `json:"total_price"`
	RemainingStock int             `json:"remaining_stock"`
	OccurredAt     time.Time       `json:"occurred_at"`
}

func (OrderPlacedEvent) EventName() string { return EventOrderPlaced }

// EventKey partitions the event stream by order.
func (e OrderPlacedEvent) EventKey() string { return e.OrderID }

func NewOrderPlacedEvent(o *Order, remainingStock int) OrderPlacedEvent {
	return OrderPlacedEvent{
		OrderID:        o.ID,
		ProductID:      o.ProductID,
		Quantity:       o.Quantity,
		TotalPrice:     o.TotalPrice,
		RemainingStock: remainingStock,
		OccurredAt:     o.CreatedAt,
	}
}
