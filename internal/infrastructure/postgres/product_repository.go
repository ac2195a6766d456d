package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-orders/internal/domain/product"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ProductRepository stores products in postgres. Inside a unit of work it reads rows FOR UPDATE.
type ProductRepository struct {
	q         querier
	forUpdate bool
}

var _ product.Repository = (*ProductRepository)(nil)

func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{q: pool}
}

func (r *ProductRepository) Find(ctx context.Context, id string) (*product.Product, error) {
	sql := `SELECT id, name, stock, price::text, created_at, updated_at FROM products WHERE id = $1`
	if r.forUpdate {
		sql += ` FOR UPDATE`
	}
	p, err := scanProduct(r.q.QueryRow(ctx, sql, id))
	if err != nil {
		return nil, fmt.Errorf("postgres: find product: %w", err)
	}
	return p, nil
}

// ReduceStock decrements only when enough stock remains, so concurrent callers cannot oversell.
func (r *ProductRepository) ReduceStock(ctx context.Context, p *product.Product, quantity int) error {
	if quantity <= 0 {
		return product.ErrInvalidQuantity
	}

	now := time.Now().UTC()
	var stock int
	err := r.q.QueryRow(ctx,
		`UPDATE products SET stock = stock - $2, updated_at = $3
		 WHERE id = $1 AND stock >= $2
		 RETURNING stock`,
		p.ID, quantity, now,
	).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return r.missOr(ctx, p.ID, "reduce stock", product.ErrInsufficientStock)
	}
	if err != nil {
		return fmt.Errorf("postgres: reduce stock: %w", err)
	}

	p.Stock, p.UpdatedAt = stock, now
	return nil
}

// missOr explains an update that matched no row: the product is gone, or its guard failed.
func (r *ProductRepository) missOr(ctx context.Context, id, op string, guardErr error) error {
	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("postgres: %s: %w", op, err)
	}
	if !exists {
		return product.ErrNotFound
	}
	return guardErr
}

func (r *ProductRepository) Insert(ctx context.Context, p *product.Product) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO products (id, name, stock, price, created_at, updated_at)
		 VALUES ($1, $2, $3, $4::numeric, $5, $6)`,
		p.ID, p.Name, p.Stock, p.Price.String(), p.CreatedAt, p.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return product.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("postgres: insert product: %w", err)
	}
	return nil
}

func (r *ProductRepository) Restock(ctx context.Context, id string, quantity int) (*product.Product, error) {
	if quantity <= 0 {
		return nil, product.ErrInvalidQuantity
	}
	if quantity > product.MaxStock {
		return nil, product.ErrStockLimit
	}
	p, err := scanProduct(r.q.QueryRow(ctx,
		`UPDATE products SET stock = stock + $2, updated_at = $3
		 WHERE id = $1 AND stock <= $4::integer - $2
		 RETURNING id, name, stock, price::text, created_at, updated_at`,
		id, quantity, time.Now().UTC(), product.MaxStock,
	))
	if errors.Is(err, product.ErrNotFound) {
		return nil, r.missOr(ctx, id, "restock", product.ErrStockLimit)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: restock: %w", err)
	}
	return p, nil
}

func scanProduct(row pgx.Row) (*product.Product, error) {
	var (
		p     product.Product
		price string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Stock, &price, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("decode price %q: %w", price, err)
	}
	p.Price = d
	p.CreatedAt, p.UpdatedAt = p.CreatedAt.UTC(), p.UpdatedAt.UTC()
	return &p, nil
}
