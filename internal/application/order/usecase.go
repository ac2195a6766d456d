package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Zhima-Mochi/minishop-orders/internal/application"
	domain "github.com/Zhima-Mochi/minishop-orders/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-orders/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-orders/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	orderService          = "order-service"
	useCaseOrderPlace     = "order.place"
	publishPeer           = "outbox"
	defaultPublishTimeout = 300 * time.Millisecond
)

// PlaceOrderUseCase checks stock, decrements it, prices the order and persists it
// as one unit of work, then announces the order.
type PlaceOrderUseCase struct {
	uow            UnitOfWork
	idGenerator    IDGenerator
	publisher      domoutbox.Publisher
	idempotency    IdempotencyStore
	in             application.Instruments
	publishTimeout time.Duration
}

type Option func(*PlaceOrderUseCase)

// WithPublisher announces committed orders on p.
func WithPublisher(p domoutbox.Publisher) Option {
	return func(uc *PlaceOrderUseCase) { uc.publisher = p }
}

// WithIdempotency enables replay of requests carrying an idempotency key.
func WithIdempotency(s IdempotencyStore) Option {
	return func(uc *PlaceOrderUseCase) { uc.idempotency = s }
}

func WithPublishTimeout(d time.Duration) Option {
	return func(uc *PlaceOrderUseCase) {
		if d > 0 {
			uc.publishTimeout = d
		}
	}
}

func NewPlaceOrderUseCase(
	uow UnitOfWork,
	idGen IDGenerator,
	tel observability.Observability,
	opts ...Option,
) *PlaceOrderUseCase {
	uc := &PlaceOrderUseCase{
		uow:            uow,
		idGenerator:    idGen,
		in:             application.NewInstruments(tel, orderService),
		publishTimeout: defaultPublishTimeout,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

type PlaceOrderInput struct {
	IdempotencyKey string
	ProductID      string
	Quantity       int
}

type PlaceOrderResult struct {
	Order          *domain.Order
	RemainingStock int
	Replayed       bool
}

// Execute places an order for cmd.Quantity units of cmd.ProductID.
func (uc *PlaceOrderUseCase) Execute(ctx context.Context, cmd PlaceOrderInput) (_ *PlaceOrderResult, err error) {
	cmd.ProductID = strings.TrimSpace(cmd.ProductID)
	ctx, run := uc.in.Begin(ctx, useCaseOrderPlace, "PlaceOrder",
		attribute.String("order.product_id", cmd.ProductID),
		attribute.Int("order.quantity", cmd.Quantity),
	)
	run.With(
		observability.F("product_id", cmd.ProductID),
		observability.F("quantity", cmd.Quantity),
	)
	defer func() { run.End(err) }()

	if cmd.ProductID == "" {
		run.Fail("PRODUCT_ID_REQUIRED")
		return nil, newValidation("product id is required")
	}
	if cmd.Quantity <= 0 {
		run.Fail("QUANTITY_INVALID")
		return nil, newValidation("quantity must be greater than zero")
	}
	if err := ctx.Err(); err != nil {
		run.Fail("CONTEXT_CANCELED")
		return nil, err
	}

	if res, ok := uc.replay(ctx, run, cmd); ok {
		return res, nil
	}

	orderID := uc.idGenerator.NewID()
	var (
		placed    *domain.Order
		remaining int
	)
	txErr := uc.uow.Do(ctx, func(ctx context.Context, repos Repositories) error {
		p, err := repos.Products.Find(ctx, cmd.ProductID)
		if err != nil {
			return fmt.Errorf("order: find product: %w", err)
		}
		if !p.CanFulfil(cmd.Quantity) {
			return ErrInsufficientStock
		}
		if err := repos.Products.ReduceStock(ctx, p, cmd.Quantity); err != nil {
			return fmt.Errorf("order: reduce stock: %w", err)
		}

		o, err := domain.New(orderID, p.ID, cmd.Quantity, p.TotalFor(cmd.Quantity))
		if err != nil {
			return newValidation(err.Error())
		}
		if err := repos.Orders.Save(ctx, o); err != nil {
			return fmt.Errorf("order: save: %w", err)
		}

		placed, remaining = o, p.Stock
		return nil
	})
	if txErr != nil {
		if errors.Is(txErr, ErrValidation) {
			run.Fail("DOMAIN_CONSTRUCTION_FAILED")
			return nil, txErr
		}
		mapped := wrapRepositoryError(txErr)
		run.Fail(statusFor(mapped))
		return nil, mapped
	}

	run.With(
		observability.F("order_id", placed.ID),
		observability.F("remaining_stock", remaining),
		observability.F("total_price", placed.TotalPrice.String()),
	)
	run.Span.SetAttributes(attribute.String("order.id", placed.ID))
	run.Span.AddEvent(domain.EventOrderPlaced,
		trace.WithAttributes(
			attribute.String("order.id", placed.ID),
			attribute.Int("product.remaining_stock", remaining),
		),
	)

	uc.remember(ctx, run, cmd.IdempotencyKey, placed.ID)
	uc.publish(ctx, run, domain.NewOrderPlacedEvent(placed, remaining))

	return &PlaceOrderResult{Order: placed, RemainingStock: remaining}, nil
}

// replay returns the order previously placed under the same idempotency key, if any.
// Lookup failures fall through to a fresh placement.
func (uc *PlaceOrderUseCase) replay(ctx context.Context, run *application.Run, cmd PlaceOrderInput) (*PlaceOrderResult, bool) {
	if uc.idempotency == nil || cmd.IdempotencyKey == "" {
		return nil, false
	}

	orderID, found, err := uc.idempotency.Lookup(ctx, cmd.IdempotencyKey)
	if err != nil {
		run.Log.Warn("idempotency_lookup_failed", observability.F("error", err.Error()))
		return nil, false
	}
	if !found {
		return nil, false
	}

	var res *PlaceOrderResult
	err = uc.uow.Do(ctx, func(ctx context.Context, repos Repositories) error {
		o, err := repos.Orders.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		p, err := repos.Products.Find(ctx, o.ProductID)
		if err != nil {
			return err
		}
		res = &PlaceOrderResult{Order: o, RemainingStock: p.Stock, Replayed: true}
		return nil
	})
	if err != nil {
		run.Log.Warn("idempotency_replay_failed",
			observability.F("order_id", orderID),
			observability.F("error", err.Error()),
		)
		return nil, false
	}

	run.Status("IDEMPOTENT_REPLAY")
	run.With(observability.F("order_id", orderID))
	run.Span.AddEvent("order.idempotent_replay",
		trace.WithAttributes(attribute.String("order.id", orderID)),
	)
	return res, true
}

func (uc *PlaceOrderUseCase) remember(ctx context.Context, run *application.Run, key, orderID string) {
	if uc.idempotency == nil || key == "" {
		return
	}
	if err := uc.idempotency.Remember(ctx, key, orderID); err != nil {
		run.Log.Warn("idempotency_remember_failed",
			observability.F("order_id", orderID),
			observability.F("error", err.Error()),
		)
	}
}

// publish is best-effort: the order is already committed.
func (uc *PlaceOrderUseCase) publish(ctx context.Context, run *application.Run, evt domain.OrderPlacedEvent) {
	if uc.publisher == nil {
		return
	}

	pubCtx, cancel := context.WithTimeout(ctx, uc.publishTimeout)
	defer cancel()

	start := time.Now()
	err := uc.publisher.Publish(pubCtx, evt)
	if err == nil && pubCtx.Err() != nil {
		err = pubCtx.Err()
	}
	run.External(publishPeer, evt.EventName(), start, err)

	if err != nil {
		run.Status("EVENT_PUBLISH_FAILED")
		run.With(observability.F("event_publish_error", err.Error()))
		run.Span.RecordError(err)
		run.Log.Warn("event_publish_failed",
			observability.F("event", evt.EventName()),
			observability.F("order_id", evt.OrderID),
			observability.F("error", err.Error()),
		)
	}
}
