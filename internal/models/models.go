package models

import (
	"time"

	"github.com/google/uuid"
)

type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string    `gorm:"type:text;not null"`
	Description string    `gorm:"type:text"`
	Category    string    `gorm:"type:text;index"`
	PriceCents  int64     `gorm:"not null;default:0"`

	// StockQuantity — свободный остаток (за вычетом зарезервированного в корзинах).
	// IsActive всегда выводится из StockQuantity и пишется только вместе с ним
	// одним UPDATE в StockRepo.
	StockQuantity int32 `gorm:"not null;default:0"`
	IsActive      bool  `gorm:"not null;default:false"`

	CreatedAt time.Time `gorm:"not null;default:now();index"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (Product) TableName() string {
	return "products"
}

type Cart struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index"`

	Items []CartItem `gorm:"foreignKey:CartID;references:ID"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
}

func (Cart) TableName() string {
	return "carts"
}

// CartItem — одна строка корзины. Составной первичный ключ (cart_id, product_id)
// даёт уникальность товара в корзине на уровне схемы.
type CartItem struct {
	CartID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProductID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Quantity  int32     `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

type User struct {
	ID    uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name  string    `gorm:"type:text;not null"`
	Email string    `gorm:"type:text;not null"`

	// CartID — ссылка на текущую живую корзину. NULL допустим только в окне
	// checkout между откреплением старой корзины и привязкой новой.
	CartID *uuid.UUID `gorm:"type:uuid"`

	CreatedAt time.Time `gorm:"not null;default:now();index"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (User) TableName() string {
	return "users"
}
