package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	domorder "github.com/Zhima-Mochi/minishop-orders/internal/domain/order"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func header(m kafkago.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestPublisherWritesKeyedJSON(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	w := &fakeWriter{}
	p := NewPublisher(w, nil)

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0xa},
		SpanID:     trace.SpanID{0xb},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	evt := domorder.OrderPlacedEvent{OrderID: "o-1", ProductID: "p-1", Quantity: 3, TotalPrice: decimal.NewFromInt(300), RemainingStock: 7}
	if err := p.Publish(ctx, evt); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if len(w.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(w.msgs))
	}
	m := w.msgs[0]
	if string(m.Key) != "o-1" {
		t.Fatalf("expected key o-1, got %q", m.Key)
	}
	if header(m, HeaderEventType) != "order.placed" {
		t.Fatalf("missing event_type header: %+v", m.Headers)
	}
	if header(m, "traceparent") == "" {
		t.Fatalf("expected traceparent header: %+v", m.Headers)
	}

	var body map[string]any
	if err := json.Unmarshal(m.Value, &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["total_price"] != "300" || body["remaining_stock"] != float64(7) {
		t.Fatalf("unexpected body %v", body)
	}

	_ = p.Close()
	if !w.closed {
		t.Fatalf("expected writer closed")
	}
}

func TestPublisherWrapsWriteError(t *testing.T) {
	boom := errors.New("leader not available")
	p := NewPublisher(&fakeWriter{err: boom}, nil)

	err := p.Publish(context.Background(), domorder.OrderPlacedEvent{OrderID: "o-1"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped writer error, got %v", err)
	}
}
