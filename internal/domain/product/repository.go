package product

import "context"

type Repository interface {
	Find(ctx context.Context, id string) (*Product, error)
	// ReduceStock atomically decrements stock when at least quantity units remain,
	// otherwise it returns ErrInsufficientStock and leaves stock untouched.
	// On success p.Stock reflects the stored value.
	ReduceStock(ctx context.Context, p *Product, quantity int) error
	Insert(ctx context.Context, p *Product) error
	Restock(ctx context.Context, id string, quantity int) (*Product, error)
}
