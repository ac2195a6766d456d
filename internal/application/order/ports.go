package order

import (
	"context"

	domain "github.com/Zhima-Mochi/minishop-orders/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-orders/internal/domain/product"
)

type IDGenerator interface {
	NewID() string
}

// Repositories are the stores visible inside a unit of work.
type Repositories struct {
	Products product.Repository
	Orders   domain.Repository
}

// UnitOfWork runs fn as one business transaction: either every write made through
// the supplied repositories is kept, or none is.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// IdempotencyStore remembers which order a client-supplied key produced.
type IdempotencyStore interface {
	Lookup(ctx context.Context, key string) (orderID string, found bool, err error)
	Remember(ctx context.Context, key, orderID string) error
}
