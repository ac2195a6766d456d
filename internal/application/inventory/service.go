package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Zhima-Mochi/minishop-orders/internal/application"
	"github.com/Zhima-Mochi/minishop-orders/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-orders/internal/observability"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

const (
	inventoryService = "inventory-service"
	useCaseRegister  = "product.register"
	useCaseGet       = "product.get"
	useCaseRestock   = "product.restock"
)

var (
	ErrValidation = errors.New("inventory: validation failed")
	ErrNotFound   = product.ErrNotFound
	ErrConflict   = product.ErrConflict
	ErrStorage    = errors.New("inventory: storage failure")
)

type IDGenerator interface {
	NewID() string
}

// Service maintains the product catalogue that orders are placed against.
type Service struct {
	repo        product.Repository
	idGenerator IDGenerator
	in          application.Instruments
	levels      *StockLevels
}

func NewService(repo product.Repository, idGen IDGenerator, tel observability.Observability, opts ...Option) *Service {
	return &Service{
		repo:        repo,
		idGenerator: idGen,
		in:          application.NewInstruments(tel, inventoryService),
		levels:      resolve(tel, opts).levels,
	}
}

type RegisterProductInput struct {
	ID    string
	Name  string
	Stock int
	Price decimal.Decimal
}

// Register adds a product to the catalogue. An empty ID is generated.
func (s *Service) Register(ctx context.Context, in RegisterProductInput) (_ *product.Product, err error) {
	ctx, run := s.in.Begin(ctx, useCaseRegister, "RegisterProduct", attribute.String("product.id", in.ID))
	defer func() { run.End(err) }()

	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = s.idGenerator.NewID()
	}
	run.With(observability.F("product_id", id), observability.F("stock", in.Stock))

	p, err := product.New(id, in.Name, in.Stock, in.Price)
	if err != nil {
		run.Fail("VALIDATION_FAILED")
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if err := s.repo.Insert(ctx, p); err != nil {
		err = wrapRepositoryError(err)
		run.Fail(statusFor(err))
		return nil, err
	}
	s.levels.Record(p.ID, p.Stock, p.UpdatedAt)
	return p, nil
}

func (s *Service) Get(ctx context.Context, id string) (_ *product.Product, err error) {
	id = strings.TrimSpace(id)
	ctx, run := s.in.Begin(ctx, useCaseGet, "GetProduct", attribute.String("product.id", id))
	run.With(observability.F("product_id", id))
	defer func() { run.End(err) }()

	if id == "" {
		run.Fail("PRODUCT_ID_REQUIRED")
		return nil, fmt.Errorf("%w: product id is required", ErrValidation)
	}
	p, err := s.repo.Find(ctx, id)
	if err != nil {
		err = wrapRepositoryError(err)
		run.Fail(statusFor(err))
		return nil, err
	}
	return p, nil
}

// Restock adds quantity units to the product's stock.
func (s *Service) Restock(ctx context.Context, id string, quantity int) (_ *product.Product, err error) {
	id = strings.TrimSpace(id)
	ctx, run := s.in.Begin(ctx, useCaseRestock, "Restock",
		attribute.String("product.id", id),
		attribute.Int("product.quantity", quantity),
	)
	run.With(observability.F("product_id", id), observability.F("quantity", quantity))
	defer func() { run.End(err) }()

	if id == "" {
		run.Fail("PRODUCT_ID_REQUIRED")
		return nil, fmt.Errorf("%w: product id is required", ErrValidation)
	}
	if quantity <= 0 {
		run.Fail("QUANTITY_INVALID")
		return nil, fmt.Errorf("%w: %w", ErrValidation, product.ErrInvalidQuantity)
	}
	if quantity > product.MaxStock {
		run.Fail("STOCK_LIMIT")
		return nil, fmt.Errorf("%w: %w", ErrValidation, product.ErrStockLimit)
	}

	p, err := s.repo.Restock(ctx, id, quantity)
	if err != nil {
		err = wrapRepositoryError(err)
		run.Fail(statusFor(err))
		return nil, err
	}
	run.With(observability.F("stock", p.Stock))
	s.levels.Record(p.ID, p.Stock, p.UpdatedAt)
	return p, nil
}

func wrapRepositoryError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, product.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, product.ErrConflict):
		return ErrConflict
	case errors.Is(err, product.ErrInvalidQuantity), errors.Is(err, product.ErrStockLimit):
		return fmt.Errorf("%w: %w", ErrValidation, err)
	default:
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
}

func statusFor(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "PRODUCT_NOT_FOUND"
	case errors.Is(err, ErrConflict):
		return "PRODUCT_EXISTS"
	case errors.Is(err, ErrValidation):
		return "VALIDATION_FAILED"
	default:
		return "STORAGE_FAILED"
	}
}
