package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/minishop-orders/internal/domain/order"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type OrderRepository struct {
	q querier
}

var _ order.Repository = (*OrderRepository)(nil)

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{q: pool}
}

func (r *OrderRepository) Save(ctx context.Context, o *order.Order) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO orders (id, product_id, quantity, total_price, created_at)
		 VALUES ($1, $2, $3, $4::numeric, $5)`,
		o.ID, o.ProductID, o.Quantity, o.TotalPrice.String(), o.CreatedAt,
	)
	if isUniqueViolation(err) {
		return order.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("postgres: save order: %w", err)
	}
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*order.Order, error) {
	o, err := scanOrder(r.q.QueryRow(ctx,
		`SELECT id, product_id, quantity, total_price::text, created_at FROM orders WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("postgres: find order: %w", err)
	}
	return o, nil
}

func (r *OrderRepository) ListByProduct(ctx context.Context, productID string) ([]*order.Order, error) {
	rows, err := r.q.Query(ctx,
		`SELECT id, product_id, quantity, total_price::text, created_at
		 FROM orders WHERE product_id = $1 ORDER BY created_at, id`, productID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list orders: %w", err)
	}
	defer rows.Close()

	var out []*order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: list orders: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list orders: %w", err)
	}
	return out, nil
}

func scanOrder(row pgx.Row) (*order.Order, error) {
	var (
		o     order.Order
		total string
	)
	if err := row.Scan(&o.ID, &o.ProductID, &o.Quantity, &total, &o.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, err
	}
	d, err := decimal.NewFromString(total)
	if err != nil {
		return nil, fmt.Errorf("decode total %q: %w", total, err)
	}
	o.TotalPrice = d
	o.CreatedAt = o.CreatedAt.UTC()
	return &o, nil
}
