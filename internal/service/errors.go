package service

import (
	"errors"
	"fmt"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrCartNotFound      = errors.New("cart not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrLineNotFound      = errors.New("item not found in cart")
	ErrProductInactive   = errors.New("product is not available")
	ErrCartAlreadyExists = errors.New("user already has a cart")
	ErrInvalidQuantity   = errors.New("quantity must be > 0")

	// ErrInvariantViolation — внутренний дефект протокола (например, строка
	// корзины исчезла между merge и append). Наружу уходить не должен.
	ErrInvariantViolation = errors.New("cart line invariant violated")
)

// InsufficientStockError несёт доступный остаток: вызывающему слою
// нужно показать, сколько ещё можно заказать.
type InsufficientStockError struct {
	Requested int32
	Available int32
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock: requested %d, available %d", e.Requested, e.Available)
}
