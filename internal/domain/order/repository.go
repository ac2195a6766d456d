package order

import "context"

type Repository interface {
	Save(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, id string) (*Order, error)
	// ListByProduct returns orders for productID, oldest first.
	ListByProduct(ctx context.Context, productID string) ([]*Order, error)
}
