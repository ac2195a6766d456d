// Package outbox defines how committed order events leave the write path.
// PlaceOrder publishes order.placed through a Publisher; the in-process bus and
// the Kafka publisher implement it, and the stock watcher subscribes.
package outbox

import "context"

// Event is a named domain event such as order.placed.
type Event interface {
	EventName() string
}

// Handler processes a published event.
type Handler func(ctx context.Context, e Event) error

// Publisher delivers an event after the transaction that produced it has committed.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Subscriber registers handlers by event name.
type Subscriber interface {
	Subscribe(eventName string, h Handler)
}
