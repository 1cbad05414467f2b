package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockRepo — единственная точка записи stock_quantity/is_active.
// Каждая операция — один условный UPDATE: проверка достаточности остатка
// и списание происходят в одном предложении, без чтения между ними.
type StockRepo interface {
	// TryReserve: if stock_quantity >= qty then stock_quantity -= qty.
	// ok=false — строка не подошла под предикат (нет товара или не хватает остатка).
	TryReserve(ctx context.Context, productID uuid.UUID, qty int32) (int32, bool, error)
	// Release: stock_quantity += qty, безусловно (лишь бы товар существовал).
	Release(ctx context.Context, productID uuid.UUID, qty int32) (int32, bool, error)
	// SetStock: административная перезапись абсолютным значением.
	SetStock(ctx context.Context, productID uuid.UUID, value int32) (int32, bool, error)
	// FinalizeSale: списание при checkout, с отсечкой в ноль.
	// Остаток уже не включает зарезервированное, поэтому повторное
	// вычитание ограничивается GREATEST(..., 0) вместо предиката.
	FinalizeSale(ctx context.Context, productID uuid.UUID, qty int32) (int32, bool, error)
}

type stockRepo struct{ db *gorm.DB }

func NewStockRepo(db *gorm.DB) StockRepo { return &stockRepo{db: db} }

// is_active везде пересчитывается в том же UPDATE, что и остаток:
// производное поле никогда не расходится с stock_quantity.

func (r *stockRepo) TryReserve(ctx context.Context, productID uuid.UUID, qty int32) (int32, bool, error) {
	var newStock int32
	tx := r.db.WithContext(ctx).Raw(`
UPDATE products
SET stock_quantity = stock_quantity - @q,
    is_active      = (stock_quantity - @q) > 0,
    updated_at     = now()
WHERE id = @pid
  AND stock_quantity >= @q
RETURNING stock_quantity
`, map[string]any{
		"pid": productID,
		"q":   qty,
	}).Scan(&newStock)
	return newStock, tx.RowsAffected > 0, tx.Error
}

func (r *stockRepo) Release(ctx context.Context, productID uuid.UUID, qty int32) (int32, bool, error) {
	var newStock int32
	tx := r.db.WithContext(ctx).Raw(`
UPDATE products
SET stock_quantity = stock_quantity + @q,
    is_active      = (stock_quantity + @q) > 0,
    updated_at     = now()
WHERE id = @pid
RETURNING stock_quantity
`, map[string]any{
		"pid": productID,
		"q":   qty,
	}).Scan(&newStock)
	return newStock, tx.RowsAffected > 0, tx.Error
}

func (r *stockRepo) SetStock(ctx context.Context, productID uuid.UUID, value int32) (int32, bool, error) {
	var newStock int32
	tx := r.db.WithContext(ctx).Raw(`
UPDATE products
SET stock_quantity = @v,
    is_active      = @v > 0,
    updated_at     = now()
WHERE id = @pid
RETURNING stock_quantity
`, map[string]any{
		"pid": productID,
		"v":   value,
	}).Scan(&newStock)
	return newStock, tx.RowsAffected > 0, tx.Error
}

func (r *stockRepo) FinalizeSale(ctx context.Context, productID uuid.UUID, qty int32) (int32, bool, error) {
	var newStock int32
	tx := r.db.WithContext(ctx).Raw(`
UPDATE products
SET stock_quantity = GREATEST(stock_quantity - @q, 0),
    is_active      = GREATEST(stock_quantity - @q, 0) > 0,
    updated_at     = now()
WHERE id = @pid
RETURNING stock_quantity
`, map[string]any{
		"pid": productID,
		"q":   qty,
	}).Scan(&newStock)
	return newStock, tx.RowsAffected > 0, tx.Error
}
