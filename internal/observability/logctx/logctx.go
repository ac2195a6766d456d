package logctx

import (
	"context"

	"github.com/Zhima-Mochi/minishop-orders/internal/observability"
	"go.opentelemetry.io/otel/trace"
)

type loggerKey struct{}

// With stores the provided logger on the context for request-scoped logging.
func With(ctx context.Context, logger observability.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey{}, logger)
}

// From retrieves a logger from the context if present.
func From(ctx context.Context) observability.Logger {
	if ctx == nil {
		return nil
	}
	logger, _ := ctx.Value(loggerKey{}).(observability.Logger)
	return logger
}

// FromOr returns the context logger when available, otherwise falls back to the supplied logger.
func FromOr(ctx context.Context, fallback observability.Logger) observability.Logger {
	if logger := From(ctx); logger != nil {
		return logger
	}
	if fallback == nil {
		return observability.NopLogger()
	}
	return fallback
}

// TraceFields returns trace_id/span_id fields for the span carried by ctx, or nil when there is none.
func TraceFields(ctx context.Context) []observability.Field {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return nil
	}
	return []observability.Field{
		observability.F("trace_id", sc.TraceID().String()),
		observability.F("span_id", sc.SpanID().String()),
	}
}

// Enrich binds the span identifiers of ctx onto logger.
func Enrich(ctx context.Context, logger observability.Logger) observability.Logger {
	if logger == nil {
		logger = observability.NopLogger()
	}
	if fields := TraceFields(ctx); fields != nil {
		return logger.With(fields...)
	}
	return logger
}
