package order

import (
	"errors"
	"fmt"

	domain "github.com/Zhima-Mochi/minishop-orders/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-orders/internal/domain/product"
)

var (
	ErrValidation        = errors.New("order: validation failed")
	ErrProductNotFound   = product.ErrNotFound
	ErrOrderNotFound     = domain.ErrNotFound
	ErrInsufficientStock = product.ErrInsufficientStock
	ErrConflict          = domain.ErrConflict
	ErrStorage           = errors.New("order: storage failure")
)

func wrapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, product.ErrNotFound):
		return ErrProductNotFound
	case errors.Is(err, domain.ErrNotFound):
		return ErrOrderNotFound
	case errors.Is(err, product.ErrInsufficientStock):
		return ErrInsufficientStock
	case errors.Is(err, domain.ErrConflict):
		return ErrConflict
	default:
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
}

func newValidation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// statusFor names an application error for spans, metrics and logs.
func statusFor(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "VALIDATION_FAILED"
	case errors.Is(err, ErrProductNotFound):
		return "PRODUCT_NOT_FOUND"
	case errors.Is(err, ErrOrderNotFound):
		return "ORDER_NOT_FOUND"
	case errors.Is(err, ErrInsufficientStock):
		return "INSUFFICIENT_STOCK"
	case errors.Is(err, ErrConflict):
		return "CONFLICT"
	default:
		return "STORAGE_FAILED"
	}
}
