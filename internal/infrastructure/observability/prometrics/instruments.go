package prometrics

import (
	infraobs "github.com/Zhima-Mochi/minishop-orders/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-orders/internal/observability"
)

// StandardInstruments registers the RED metrics used across the service.
func StandardInstruments(r Registry) infraobs.Instruments {
	return infraobs.Instruments{
		Counters: map[observability.MetricKey]observability.Counter{
			observability.MUsecaseRequests: r.Counter(string(observability.MUsecaseRequests),
				"Total number of use case invocations.", "use_case", "outcome"),
			observability.MHTTPRequests: r.Counter(string(observability.MHTTPRequests),
				"Total number of HTTP requests.", "method", "route", "status"),
			observability.MExternalRequests: r.Counter(string(observability.MExternalRequests),
				"Calls to external peers such as the event bus or broker.", "peer", "endpoint", "outcome"),
		},
		Histograms: map[observability.MetricKey]observability.Histogram{
			observability.MUsecaseDuration: r.Histogram(string(observability.MUsecaseDuration),
				"Duration of use case execution in seconds.", nil, "use_case"),
			observability.MHTTPRequestDuration: r.Histogram(string(observability.MHTTPRequestDuration),
				"Duration of HTTP requests in seconds.", nil, "method", "route", "status"),
			observability.MExternalRequestDuration: r.Histogram(string(observability.MExternalRequestDuration),
				"Duration of external calls in seconds.", nil, "peer", "endpoint"),
		},
		Gauges: map[observability.MetricKey]observability.Gauge{
			observability.MProductStock: r.Gauge(string(observability.MProductStock),
				"Remaining stock per product after the last placed order.", "product_id"),
		},
	}
}
