package inventory

import (
	"sync"
	"time"

	"github.com/Zhima-Mochi/minishop-orders/internal/observability"
)

// StockLevels exports the product_stock gauge. Readings are ordered by the time
// they were taken, so a delayed reading never overwrites a newer one.
type StockLevels struct {
	mu    sync.Mutex
	taken map[string]time.Time
	gauge observability.Gauge
}

func NewStockLevels(tel observability.Observability) *StockLevels {
	if tel == nil {
		tel = observability.Nop()
	}
	return &StockLevels{
		taken: make(map[string]time.Time),
		gauge: tel.Metrics().Gauge(observability.MProductStock),
	}
}

// Record sets the gauge for productID unless a later reading was already recorded.
// It reports whether the reading was applied.
func (l *StockLevels) Record(productID string, stock int, at time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if last, ok := l.taken[productID]; ok && at.Before(last) {
		return false
	}
	l.taken[productID] = at
	l.gauge.Set(float64(stock), observability.L("product_id", productID))
	return true
}

// Option configures the catalogue service and the stock watcher.
type Option func(*settings)

type settings struct {
	levels *StockLevels
}

// WithStockLevels shares one gauge writer between components.
func WithStockLevels(l *StockLevels) Option {
	return func(s *settings) { s.levels = l }
}

func resolve(tel observability.Observability, opts []Option) settings {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}
	if s.levels == nil {
		s.levels = NewStockLevels(tel)
	}
	return s
}
