package logctx

import (
	"context"
	"testing"

	"github.com/Zhima-Mochi/minishop-orders/internal/observability"
	"go.opentelemetry.io/otel/trace"
)

type recordingLogger struct {
	observability.Logger
	fields []observability.Field
}

func (r *recordingLogger) With(fields ...observability.Field) observability.Logger {
	return &recordingLogger{Logger: observability.NopLogger(), fields: append(append([]observability.Field(nil), r.fields...), fields...)}
}

func TestFromOrFallsBack(t *testing.T) {
	fallback := &recordingLogger{Logger: observability.NopLogger()}
	if got := FromOr(context.Background(), fallback); got != fallback {
		t.Fatalf("expected fallback logger")
	}

	stored := &recordingLogger{Logger: observability.NopLogger()}
	ctx := With(context.Background(), stored)
	if got := FromOr(ctx, fallback); got != stored {
		t.Fatalf("expected context logger")
	}
	if FromOr(context.Background(), nil) == nil {
		t.Fatalf("expected nop logger when no fallback given")
	}
}

func TestTraceFields(t *testing.T) {
	if fields := TraceFields(context.Background()); fields != nil {
		t.Fatalf("expected no fields without span, got %v", fields)
	}

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1, 2, 3},
		SpanID:     trace.SpanID{4, 5, 6},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	logger := Enrich(ctx, &recordingLogger{Logger: observability.NopLogger()}).(*recordingLogger)
	if len(logger.fields) != 2 {
		t.Fatalf("expected trace and span fields, got %v", logger.fields)
	}
	if logger.fields[0].Key != "trace_id" || logger.fields[0].Value != sc.TraceID().String() {
		t.Fatalf("unexpected trace field: %+v", logger.fields[0])
	}
	if logger.fields[1].Key != "span_id" || logger.fields[1].Value != sc.SpanID().String() {
		t.Fatalf("unexpected span field: %+v", logger.fields[1])
	}
}
