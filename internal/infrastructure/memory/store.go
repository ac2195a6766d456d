package memory

import (
	"context"
	"fmt"
	"sync"

	apporder "github.com/Zhima-Mochi/minishop-orders/internal/application/order"
	"github.com/Zhima-Mochi/minishop-orders/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-orders/internal/domain/product"
)

// Store holds products and orders in process memory. Its repositories share one lock,
// and Do runs a unit of work while holding it exclusively.
type Store struct {
	mu sync.RWMutex
	st *state
}

func NewStore() *Store {
	return &Store{st: newState()}
}

func (s *Store) Products() *ProductRepository { return &ProductRepository{s: s} }

func (s *Store) Orders() *OrderRepository { return &OrderRepository{s: s} }

// Do applies fn's writes atomically. When fn returns an error, or ctx is done by the time
// fn returns, every write fn made is undone.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, repos apporder.Repositories) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	j := &journal{}
	defer func() {
		if err != nil {
			j.rollback()
		}
	}()

	repos := apporder.Repositories{
		Products: &txProducts{st: s.st, j: j},
		Orders:   &txOrders{st: s.st, j: j},
	}
	if err := fn(ctx, repos); err != nil {
		return err
	}
	return ctx.Err()
}

// journal records how to undo the writes of one unit of work.
type journal struct {
	undo []func()
}

func (j *journal) record(f func()) {
	if j != nil {
		j.undo = append(j.undo, f)
	}
}

func (j *journal) rollback() {
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
	j.undo = nil
}

type state struct {
	products  map[string]*product.Product
	orders    map[string]*order.Order
	byProduct map[string][]string
}

func newState() *state {
	return &state{
		products:  make(map[string]*product.Product),
		orders:    make(map[string]*order.Order),
		byProduct: make(map[string][]string),
	}
}

func (st *state) findProduct(id string) (*product.Product, error) {
	p, ok := st.products[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return p.Clone(), nil
}

// Stored values are never mutated in place; writes swap in a fresh clone so the journal
// can restore the previous pointer.
func (st *state) putProduct(j *journal, next *product.Product) {
	prev, existed := st.products[next.ID]
	st.products[next.ID] = next
	j.record(func() {
		if existed {
			st.products[next.ID] = prev
		} else {
			delete(st.products, next.ID)
		}
	})
}

func (st *state) reduceStock(j *journal, p *product.Product, quantity int) error {
	if p == nil {
		return product.ErrNotFound
	}
	cur, ok := st.products[p.ID]
	if !ok {
		return product.ErrNotFound
	}
	next := cur.Clone()
	if err := next.ReduceStock(quantity); err != nil {
		return err
	}
	st.putProduct(j, next)

	p.Stock, p.UpdatedAt = next.Stock, next.UpdatedAt
	return nil
}

func (st *state) insertProduct(j *journal, p *product.Product) error {
	if p == nil || p.ID == "" {
		return fmt.Errorf("product repository: id is required")
	}
	if _, exists := st.products[p.ID]; exists {
		return product.ErrConflict
	}
	st.putProduct(j, p.Clone())
	return nil
}

func (st *state) restock(j *journal, id string, quantity int) (*product.Product, error) {
	cur, ok := st.products[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	next := cur.Clone()
	if err := next.Restock(quantity); err != nil {
		return nil, err
	}
	st.putProduct(j, next)
	return next.Clone(), nil
}

func (st *state) saveOrder(j *journal, o *order.Order) error {
	if o == nil || o.ID == "" {
		return fmt.Errorf("order repository: id is required")
	}
	if _, exists := st.orders[o.ID]; exists {
		return order.ErrConflict
	}

	prevIDs := st.byProduct[o.ProductID]
	ids := make([]string, len(prevIDs), len(prevIDs)+1)
	copy(ids, prevIDs)

	st.orders[o.ID] = o.Clone()
	st.byProduct[o.ProductID] = append(ids, o.ID)
	j.record(func() {
		delete(st.orders, o.ID)
		if prevIDs == nil {
			delete(st.byProduct, o.ProductID)
		} else {
			st.byProduct[o.ProductID] = prevIDs
		}
	})
	return nil
}

func (st *state) findOrder(id string) (*order.Order, error) {
	o, ok := st.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return o.Clone(), nil
}

func (st *state) listByProduct(productID string) []*order.Order {
	ids := st.byProduct[productID]
	out := make([]*order.Order, 0, len(ids))
	for _, id := range ids {
		if o, ok := st.orders[id]; ok {
			out = append(out, o.Clone())
		}
	}
	return out
}
