package inventory

import (
	"context"

	"github.com/Zhima-Mochi/minishop-orders/internal/application"
	domorder "github.com/Zhima-Mochi/minishop-orders/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-orders/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-orders/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	watcherService    = "inventory_worker"
	useCaseWatchStock = "inventory.worker.order_placed"
)

// StockWatcher follows placed orders, exports the remaining stock per product and
// warns once a product runs low.
type StockWatcher struct {
	subscriber domoutbox.Subscriber
	threshold  int
	in         application.Instruments
	levels     *StockLevels
}

func NewStockWatcher(subscriber domoutbox.Subscriber, threshold int, tel observability.Observability, opts ...Option) *StockWatcher {
	return &StockWatcher{
		subscriber: subscriber,
		threshold:  threshold,
		in:         application.NewInstruments(tel, watcherService),
		levels:     resolve(tel, opts).levels,
	}
}

func (w *StockWatcher) Start() {
	if w.subscriber == nil {
		return
	}
	w.subscriber.Subscribe(domorder.EventOrderPlaced, w.handleOrderPlaced)
}

func (w *StockWatcher) handleOrderPlaced(ctx context.Context, e domoutbox.Event) (err error) {
	_, run := w.in.Begin(ctx, useCaseWatchStock, "OrderPlaced", attribute.String("event", e.EventName()))
	defer func() { run.End(err) }()

	evt, ok := e.(domorder.OrderPlacedEvent)
	if !ok {
		run.Ignore()
		return nil
	}

	run.With(
		observability.F("order_id", evt.OrderID),
		observability.F("product_id", evt.ProductID),
		observability.F("remaining_stock", evt.RemainingStock),
	)
	run.Span.SetAttributes(
		attribute.String("product.id", evt.ProductID),
		attribute.Int("product.remaining_stock", evt.RemainingStock),
	)

	// A restock recorded after this order makes the reading stale.
	if !w.levels.Record(evt.ProductID, evt.RemainingStock, evt.OccurredAt) {
		run.Status("STOCK_READING_STALE")
		return nil
	}

	if evt.RemainingStock <= w.threshold {
		run.Status("STOCK_LOW")
		run.Log.Warn("stock_low",
			observability.F("product_id", evt.ProductID),
			observability.F("remaining_stock", evt.RemainingStock),
			observability.F("threshold", w.threshold),
		)
	}
	return nil
}
