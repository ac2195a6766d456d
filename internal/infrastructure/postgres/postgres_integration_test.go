//go:build integration

package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	apporder "github.com/Zhima-Mochi/minishop-orders/internal/application/order"
	"github.com/Zhima-Mochi/minishop-orders/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-orders/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-orders/internal/observability"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	c, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("orders"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	url, err := c.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}
	pool, err := Connect(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return pool
}

type seqIDs struct{ n atomic.Int64 }

func (g *seqIDs) NewID() string { return fmt.Sprintf("o-%d", g.n.Add(1)) }

func insertProduct(t *testing.T, pool *pgxpool.Pool, id string, stock int, price string) {
	t.Helper()
	p, err := product.New(id, "Widget", stock, decimal.RequireFromString(price))
	if err != nil {
		t.Fatalf("new product: %v", err)
	}
	if err := NewProductRepository(pool).Insert(context.Background(), p); err != nil {
		t.Fatalf("insert: %v", err)
	}
}

func TestPostgresPlaceOrder(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()
	insertProduct(t, pool, "1", 10, "100")

	products := NewProductRepository(pool)
	dup, _ := product.New("1", "Dup", 1, decimal.Zero)
	if err := products.Insert(ctx, dup); !errors.Is(err, product.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	uc := apporder.NewPlaceOrderUseCase(NewUnitOfWork(pool), &seqIDs{}, observability.Nop())
	res, err := uc.Execute(ctx, apporder.PlaceOrderInput{ProductID: "1", Quantity: 3})
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if !res.Order.TotalPrice.Equal(decimal.NewFromInt(300)) || res.RemainingStock != 7 {
		t.Fatalf("unexpected result %+v", res)
	}

	if _, err := uc.Execute(ctx, apporder.PlaceOrderInput{ProductID: "1", Quantity: 8}); !errors.Is(err, apporder.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if _, err := uc.Execute(ctx, apporder.PlaceOrderInput{ProductID: "nope", Quantity: 1}); !errors.Is(err, apporder.ErrProductNotFound) {
		t.Fatalf("expected product not found, got %v", err)
	}

	p, err := products.Find(ctx, "1")
	if err != nil || p.Stock != 7 {
		t.Fatalf("expected stock 7, got %+v %v", p, err)
	}

	orders, err := NewOrderRepository(pool).ListByProduct(ctx, "1")
	if err != nil || len(orders) != 1 || orders[0].ID != res.Order.ID {
		t.Fatalf("unexpected orders %+v %v", orders, err)
	}
	if _, err := NewOrderRepository(pool).FindByID(ctx, "missing"); !errors.Is(err, order.ErrNotFound) {
		t.Fatalf("expected order not found, got %v", err)
	}
}

func TestPostgresUnitOfWorkRollsBack(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()
	insertProduct(t, pool, "1", 10, "2.50")

	boom := errors.New("boom")
	err := NewUnitOfWork(pool).Do(ctx, func(ctx context.Context, repos apporder.Repositories) error {
		p, err := repos.Products.Find(ctx, "1")
		if err != nil {
			return err
		}
		if err := repos.Products.ReduceStock(ctx, p, 4); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	p, _ := NewProductRepository(pool).Find(ctx, "1")
	if p.Stock != 10 || !p.Price.Equal(decimal.RequireFromString("2.5")) {
		t.Fatalf("expected untouched product, got %+v", p)
	}
}

func TestPostgresConcurrentOrdersNeverOversell(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()
	insertProduct(t, pool, "1", 5, "1")

	uc := apporder.NewPlaceOrderUseCase(NewUnitOfWork(pool), &seqIDs{}, observability.Nop())
	var (
		wg sync.WaitGroup
		ok atomic.Int64
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := uc.Execute(ctx, apporder.PlaceOrderInput{ProductID: "1", Quantity: 1}); err == nil {
				ok.Add(1)
			} else if !errors.Is(err, apporder.ErrInsufficientStock) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	p, _ := NewProductRepository(pool).Find(ctx, "1")
	if ok.Load() != 5 || p.Stock != 0 {
		t.Fatalf("expected 5 orders and stock 0, got %d and %d", ok.Load(), p.Stock)
	}
}

func TestPostgresRestockStaysWithinLimit(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()
	insertProduct(t, pool, "1", 10, "0.1235")
	repo := NewProductRepository(pool)

	if _, err := repo.Restock(ctx, "1", product.MaxStock); !errors.Is(err, product.ErrStockLimit) {
		t.Fatalf("expected stock limit, got %v", err)
	}
	if _, err := repo.Restock(ctx, "missing", 1); !errors.Is(err, product.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	p, err := repo.Restock(ctx, "1", product.MaxStock-10)
	if err != nil {
		t.Fatalf("restock: %v", err)
	}
	if p.Stock != product.MaxStock {
		t.Fatalf("expected stock %d, got %d", product.MaxStock, p.Stock)
	}
	if !p.Price.Equal(decimal.RequireFromString("0.1235")) {
		t.Fatalf("expected price stored exactly, got %s", p.Price)
	}
}
