package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	domoutbox "github.com/Zhima-Mochi/minishop-orders/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-orders/internal/observability"
	"github.com/Zhima-Mochi/minishop-orders/internal/observability/logctx"
	kafkago "github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const (
	HeaderEventType = "event_type"
	batchTimeout    = 10 * time.Millisecond
)

// Writer is the subset of *kafkago.Writer the publisher needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// keyed events choose their own partition key.
type keyed interface {
	EventKey() string
}

// Publisher writes domain events to a Kafka topic as JSON.
type Publisher struct {
	w   Writer
	log observability.Logger
}

// NewWriter builds a synchronous writer for topic on brokers.
func NewWriter(brokers []string, topic string) *kafkago.Writer {
	return &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		BatchTimeout:           batchTimeout,
		RequiredAcks:           kafkago.RequireOne,
		AllowAutoTopicCreation: true,
	}
}

func NewPublisher(w Writer, logger observability.Logger) *Publisher {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Publisher{w: w, log: logger.With(observability.F("component", "kafka_publisher"))}
}

func (p *Publisher) Publish(ctx context.Context, e domoutbox.Event) error {
	if e == nil {
		return nil
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("kafka: encode %s: %w", e.EventName(), err)
	}

	msg := kafkago.Message{
		Value: payload,
		Headers: []kafkago.Header{
			{Key: HeaderEventType, Value: []byte(e.EventName())},
		},
	}
	if k, ok := e.(keyed); ok {
		msg.Key = []byte(k.EventKey())
	}

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	for k, v := range carrier {
		msg.Headers = append(msg.Headers, kafkago.Header{Key: k, Value: []byte(v)})
	}

	if err := p.w.WriteMessages(ctx, msg); err != nil {
		logctx.FromOr(ctx, p.log).Warn("kafka_write_failed",
			observability.F("event", e.EventName()),
			observability.F("error", err),
		)
		return fmt.Errorf("kafka: write %s: %w", e.EventName(), err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.w.Close()
}
