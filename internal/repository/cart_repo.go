package repository

import (
	"context"
	"errors"

	"cart-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RemovedLine — снятая с корзины строка, для восстановления остатка.
type RemovedLine struct {
	ProductID uuid.UUID
	Quantity  int32
}

// CartRepo — построчные атомарные операции над корзиной.
// Операции над разными товарами коммутируют; блокировка корзины целиком не нужна.
type CartRepo interface {
	Create(ctx context.Context, c *models.Cart) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Cart, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Cart, error)

	// MergeLine: quantity += delta для существующей строки; merged=false — строки нет,
	// записи не было.
	MergeLine(ctx context.Context, cartID, productID uuid.UUID, delta int32) (bool, error)
	// AppendLine: вставка новой строки. При гонке с параллельным merge строка
	// может уже существовать — тогда ON CONFLICT доливает количество,
	// и «добавить после неудачного merge» вырождается в merge.
	AppendLine(ctx context.Context, cartID, productID uuid.UUID, qty int32) (bool, error)
	SetLineQuantity(ctx context.Context, cartID, productID uuid.UUID, qty int32) (bool, error)
	// RemoveLine возвращает снятое количество — для возврата на склад.
	RemoveLine(ctx context.Context, cartID, productID uuid.UUID) (int32, bool, error)
	// Clear возвращает все снятые строки.
	Clear(ctx context.Context, cartID uuid.UUID) ([]RemovedLine, error)
	GetLine(ctx context.Context, cartID, productID uuid.UUID) (int32, bool, error)
}

type cartRepo struct{ db *gorm.DB }

func NewCartRepo(db *gorm.DB) CartRepo { return &cartRepo{db: db} }

func (r *cartRepo) Create(ctx context.Context, c *models.Cart) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *cartRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	var c models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&c, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *cartRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Cart{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

func (r *cartRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tx := r.db.WithContext(ctx).Delete(&models.Cart{}, "id = ?", id)
	return tx.RowsAffected > 0, tx.Error
}

func (r *cartRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var c models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&c, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *cartRepo) MergeLine(ctx context.Context, cartID, productID uuid.UUID, delta int32) (bool, error) {
	tx := r.db.WithContext(ctx).Exec(`
UPDATE cart_items
SET quantity = quantity + @d
WHERE cart_id = @cid AND product_id = @pid
`, map[string]any{
		"cid": cartID,
		"pid": productID,
		"d":   delta,
	})
	return tx.RowsAffected > 0, tx.Error
}

func (r *cartRepo) AppendLine(ctx context.Context, cartID, productID uuid.UUID, qty int32) (bool, error) {
	tx := r.db.WithContext(ctx).Exec(`
INSERT INTO cart_items (cart_id, product_id, quantity, created_at)
VALUES (@cid, @pid, @q, now())
ON CONFLICT (cart_id, product_id)
DO UPDATE SET quantity = cart_items.quantity + excluded.quantity
`, map[string]any{
		"cid": cartID,
		"pid": productID,
		"q":   qty,
	})
	return tx.RowsAffected > 0, tx.Error
}

func (r *cartRepo) SetLineQuantity(ctx context.Context, cartID, productID uuid.UUID, qty int32) (bool, error) {
	tx := r.db.WithContext(ctx).Exec(`
UPDATE cart_items
SET quantity = @q
WHERE cart_id = @cid AND product_id = @pid
`, map[string]any{
		"cid": cartID,
		"pid": productID,
		"q":   qty,
	})
	return tx.RowsAffected > 0, tx.Error
}

func (r *cartRepo) RemoveLine(ctx context.Context, cartID, productID uuid.UUID) (int32, bool, error) {
	var qty int32
	tx := r.db.WithContext(ctx).Raw(`
DELETE FROM cart_items
WHERE cart_id = @cid AND product_id = @pid
RETURNING quantity
`, map[string]any{
		"cid": cartID,
		"pid": productID,
	}).Scan(&qty)
	return qty, tx.RowsAffected > 0, tx.Error
}

func (r *cartRepo) Clear(ctx context.Context, cartID uuid.UUID) ([]RemovedLine, error) {
	var removed []RemovedLine
	err := r.db.WithContext(ctx).Raw(`
DELETE FROM cart_items
WHERE cart_id = @cid
RETURNING product_id, quantity
`, map[string]any{
		"cid": cartID,
	}).Scan(&removed).Error
	return removed, err
}

func (r *cartRepo) GetLine(ctx context.Context, cartID, productID uuid.UUID) (int32, bool, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		First(&item, "cart_id = ? AND product_id = ?", cartID, productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return item.Quantity, true, nil
}
