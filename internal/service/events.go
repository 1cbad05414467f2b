package service

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type CheckoutItemEvent struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int32     `json:"quantity"`
}

type CartCheckedOutEvent struct {
	CartID       uuid.UUID           `json:"cart_id"`
	NewCartID    uuid.UUID           `json:"new_cart_id"`
	UserID       uuid.UUID           `json:"user_id"`
	Items        []CheckoutItemEvent `json:"items"`
	CheckedOutAt time.Time           `json:"checked_out_at"`
}

type EventBus interface {
	PublishCartCheckedOut(ctx context.Context, e CartCheckedOutEvent) error
}
