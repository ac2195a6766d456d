package order

import (
	"context"
	"strings"

	"github.com/Zhima-Mochi/minishop-orders/internal/application"
	domain "github.com/Zhima-Mochi/minishop-orders/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-orders/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	useCaseOrderGet  = "order.get"
	useCaseOrderList = "order.list"
)

type GetOrderUseCase struct {
	repo domain.Repository
	in   application.Instruments
}

func NewGetOrderUseCase(repo domain.Repository, tel observability.Observability) *GetOrderUseCase {
	return &GetOrderUseCase{repo: repo, in: application.NewInstruments(tel, orderService)}
}

func (uc *GetOrderUseCase) Execute(ctx context.Context, id string) (_ *domain.Order, err error) {
	id = strings.TrimSpace(id)
	ctx, run := uc.in.Begin(ctx, useCaseOrderGet, "GetOrder", attribute.String("order.id", id))
	run.With(observability.F("order_id", id))
	defer func() { run.End(err) }()

	if id == "" {
		run.Fail("ORDER_ID_REQUIRED")
		return nil, newValidation("order id is required")
	}

	o, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		err = wrapRepositoryError(err)
		run.Fail(statusFor(err))
		return nil, err
	}
	return o, nil
}

// ListOrdersUseCase lists the orders placed against one product, oldest first.
type ListOrdersUseCase struct {
	repo domain.Repository
	in   application.Instruments
}

func NewListOrdersUseCase(repo domain.Repository, tel observability.Observability) *ListOrdersUseCase {
	return &ListOrdersUseCase{repo: repo, in: application.NewInstruments(tel, orderService)}
}

func (uc *ListOrdersUseCase) Execute(ctx context.Context, productID string) (_ []*domain.Order, err error) {
	productID = strings.TrimSpace(productID)
	ctx, run := uc.in.Begin(ctx, useCaseOrderList, "ListOrders", attribute.String("order.product_id", productID))
	run.With(observability.F("product_id", productID))
	defer func() { run.End(err) }()

	if productID == "" {
		run.Fail("PRODUCT_ID_REQUIRED")
		return nil, newValidation("product id is required")
	}

	orders, err := uc.repo.ListByProduct(ctx, productID)
	if err != nil {
		err = wrapRepositoryError(err)
		run.Fail(statusFor(err))
		return nil, err
	}
	run.With(observability.F("count", len(orders)))
	return orders, nil
}
