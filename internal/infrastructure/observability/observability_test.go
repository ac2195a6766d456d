package observability

import (
	"testing"

	"github.com/Zhima-Mochi/minishop-orders/internal/observability"
)

type countingCounter struct{ total float64 }

func (c *countingCounter) Add(d float64, _ ...observability.Label) { c.total += d }

func TestProviderResolvesRegisteredInstruments(t *testing.T) {
	c := &countingCounter{}
	tel := New(nil, nil, Instruments{
		Counters: map[observability.MetricKey]observability.Counter{
			observability.MUsecaseRequests: c,
		},
	})

	tel.Metrics().Counter(observability.MUsecaseRequests).Add(2)
	if c.total != 2 {
		t.Fatalf("expected registered counter to receive adds, got %v", c.total)
	}

	// unknown keys must not panic
	tel.Metrics().Counter(observability.MHTTPRequests).Add(1)
	tel.Metrics().Histogram(observability.MUsecaseDuration).Observe(0.1)
	tel.Metrics().Gauge(observability.MProductStock).Set(3)

	if tel.Tracer() == nil || tel.Logger() == nil {
		t.Fatalf("expected nop tracer and logger defaults")
	}
}
