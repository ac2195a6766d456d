package memory

import (
	"context"

	"github.com/Zhima-Mochi/minishop-orders/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-orders/internal/domain/product"
)

// ProductRepository applies each call as its own transaction under the store lock.
type ProductRepository struct{ s *Store }

var _ product.Repository = (*ProductRepository)(nil)

func (r *ProductRepository) Find(ctx context.Context, id string) (*product.Product, error) {
	_ = ctx

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.s.st.findProduct(id)
}

func (r *ProductRepository) ReduceStock(ctx context.Context, p *product.Product, quantity int) error {
	_ = ctx

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.s.st.reduceStock(nil, p, quantity)
}

func (r *ProductRepository) Insert(ctx context.Context, p *product.Product) error {
	_ = ctx

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.s.st.insertProduct(nil, p)
}

func (r *ProductRepository) Restock(ctx context.Context, id string, quantity int) (*product.Product, error) {
	_ = ctx

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.s.st.restock(nil, id, quantity)
}

type OrderRepository struct{ s *Store }

var _ order.Repository = (*OrderRepository)(nil)

func (r *OrderRepository) Save(ctx context.Context, o *order.Order) error {
	_ = ctx

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.s.st.saveOrder(nil, o)
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*order.Order, error) {
	_ = ctx

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.s.st.findOrder(id)
}

func (r *OrderRepository) ListByProduct(ctx context.Context, productID string) ([]*order.Order, error) {
	_ = ctx

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.s.st.listByProduct(productID), nil
}

// txProducts and txOrders run inside Store.Do, which already holds the lock.
type txProducts struct {
	st *state
	j  *journal
}

func (r *txProducts) Find(ctx context.Context, id string) (*product.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.st.findProduct(id)
}

func (r *txProducts) ReduceStock(ctx context.Context, p *product.Product, quantity int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.st.reduceStock(r.j, p, quantity)
}

func (r *txProducts) Insert(ctx context.Context, p *product.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.st.insertProduct(r.j, p)
}

func (r *txProducts) Restock(ctx context.Context, id string, quantity int) (*product.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.st.restock(r.j, id, quantity)
}

type txOrders struct {
	st *state
	j  *journal
}

func (r *txOrders) Save(ctx context.Context, o *order.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.st.saveOrder(r.j, o)
}

func (r *txOrders) FindByID(ctx context.Context, id string) (*order.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.st.findOrder(id)
}

func (r *txOrders) ListByProduct(ctx context.Context, productID string) ([]*order.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.st.listByProduct(productID), nil
}
