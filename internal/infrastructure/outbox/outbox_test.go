package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	domoutbox "github.com/Zhima-Mochi/minishop-orders/internal/domain/outbox"
	"go.opentelemetry.io/otel/trace"
)

type testEvent struct{ name string }

func (e testEvent) EventName() string { return e.name }

func TestBusDeliversAndDrainsOnStop(t *testing.T) {
	bus := NewBus(nil)

	var (
		mu  sync.Mutex
		got []string
	)
	bus.Subscribe("order.placed", func(_ context.Context, e domoutbox.Event) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, e.EventName())
		return nil
	})
	bus.Start(context.Background())

	for i := 0; i < 3; i++ {
		if err := bus.Publish(context.Background(), testEvent{name: "order.placed"}); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}
	_ = bus.Publish(context.Background(), testEvent{name: "unrouted"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	bus.Stop(ctx)

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 3 {
		t.Fatalf("expected 3 deliveries after drain, got %d", len(got))
	}

	if err := bus.Publish(context.Background(), testEvent{name: "order.placed"}); !errors.Is(err, ErrBusClosed) {
		t.Fatalf("expected ErrBusClosed, got %v", err)
	}
}

func TestBusPropagatesSpanContext(t *testing.T) {
	bus := NewBus(nil)

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1, 2, 3},
		SpanID:     trace.SpanID{4, 5, 6},
		TraceFlags: trace.FlagsSampled,
	})
	seen := make(chan trace.SpanContext, 1)
	bus.Subscribe("e", func(ctx context.Context, _ domoutbox.Event) error {
		seen <- trace.SpanContextFromContext(ctx)
		return nil
	})
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	if err := bus.Publish(trace.ContextWithSpanContext(context.Background(), sc), testEvent{name: "e"}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case got := <-seen:
		if got.TraceID() != sc.TraceID() {
			t.Fatalf("expected trace %s, got %s", sc.TraceID(), got.TraceID())
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("handler not invoked")
	}
}

func TestBusRecoversHandlerPanic(t *testing.T) {
	bus := NewBus(nil)
	done := make(chan struct{})
	bus.Subscribe("e", func(context.Context, domoutbox.Event) error { panic("boom") })
	bus.Subscribe("e", func(context.Context, domoutbox.Event) error { close(done); return nil })
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	_ = bus.Publish(context.Background(), testEvent{name: "e"})
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("second handler not invoked")
	}
}

type recordingPublisher struct {
	n   int
	err error
}

func (p *recordingPublisher) Publish(context.Context, domoutbox.Event) error {
	p.n++
	return p.err
}

func TestPublishersJoinsErrors(t *testing.T) {
	ok := &recordingPublisher{}
	bad := &recordingPublisher{err: errors.New("broker down")}

	err := Publishers{bad, nil, ok}.Publish(context.Background(), testEvent{name: "e"})
	if err == nil || err.Error() != "broker down" {
		t.Fatalf("expected joined error, got %v", err)
	}
	if ok.n != 1 || bad.n != 1 {
		t.Fatalf("expected every publisher to be called, got %d and %d", ok.n, bad.n)
	}
}
