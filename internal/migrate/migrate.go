package migrate

import (
	"context"

	"cart-service/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type MigrateOptions struct {
	CreateExtensions       bool // pgcrypto
	CreateChecks           bool // CHECK-constraint'ы целостности
	CreateIndexes          bool // индексы и UNIQUE
	CreateFKsViaSQL        bool // FK через Exec после AutoMigrate
	CreateUpdatedAtTrigger bool // триггеры updated_at
}

func DefaultMigrateOptions() MigrateOptions {
	return MigrateOptions{
		CreateExtensions:       true,
		CreateChecks:           true,
		CreateIndexes:          true,
		CreateFKsViaSQL:        true,
		CreateUpdatedAtTrigger: true,
	}
}

func MigrateStoreDB(ctx context.Context, db *gorm.DB, log *zap.Logger, opt MigrateOptions) error {
	log.Info("Начало миграции базы каталога/корзин")

	if opt.CreateExtensions {
		if err := db.WithContext(ctx).Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
			log.Error("pgcrypto error", zap.Error(err))
			return err
		}
	}

	log.Info("Создание таблиц: products, carts, cart_items, users")
	if err := db.WithContext(ctx).AutoMigrate(
		&models.Product{},
		&models.Cart{},
		&models.CartItem{},
		&models.User{},
	); err != nil {
		log.Error("AutoMigrate error", zap.Error(err))
		return err
	}

	if opt.CreateUpdatedAtTrigger {
		if err := db.WithContext(ctx).Exec(`
CREATE OR REPLACE FUNCTION set_updated_at() RETURNS trigger AS $$
BEGIN NEW.updated_at = now(); RETURN NEW; END; $$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS trg_products_updated ON products;
CREATE TRIGGER trg_products_updated BEFORE UPDATE ON products
FOR EACH ROW EXECUTE FUNCTION set_updated_at();

DROP TRIGGER IF EXISTS trg_users_updated ON users;
CREATE TRIGGER trg_users_updated BEFORE UPDATE ON users
FOR EACH ROW EXECUTE FUNCTION set_updated_at();
`).Error; err != nil {
			log.Error("triggers error", zap.Error(err))
			return err
		}
	}

	if opt.CreateChecks {
		// Остаток не бывает отрицательным: страховка поверх предиката TryReserve.
		if err := db.WithContext(ctx).Exec(`
ALTER TABLE products
	DROP CONSTRAINT IF EXISTS chk_products_stock_non_negative,
	ADD CONSTRAINT chk_products_stock_non_negative
	CHECK (stock_quantity >= 0);
`).Error; err != nil {
			log.Error("chk stock_quantity", zap.Error(err))
			return err
		}

		if err := db.WithContext(ctx).Exec(`
ALTER TABLE products
	DROP CONSTRAINT IF EXISTS chk_products_price_non_negative,
	ADD CONSTRAINT chk_products_price_non_negative
	CHECK (price_cents >= 0);
`).Error; err != nil {
			log.Error("chk price", zap.Error(err))
			return err
		}

		// Строка с нулевым количеством не хранится — она удаляется.
		if err := db.WithContext(ctx).Exec(`
ALTER TABLE cart_items
	DROP CONSTRAINT IF EXISTS chk_cart_items_quantity_gt_zero,
	ADD CONSTRAINT chk_cart_items_quantity_gt_zero
	CHECK (quantity > 0);
`).Error; err != nil {
			log.Error("chk cart_items.quantity", zap.Error(err))
			return err
		}
	}

	if opt.CreateIndexes {
		if err := db.WithContext(ctx).Exec(`
CREATE UNIQUE INDEX IF NOT EXISTS ux_users_email
ON users (lower(email));
`).Error; err != nil {
			log.Error("ux users.email", zap.Error(err))
			return err
		}

		// Обратный поиск владельца корзины при checkout.
		if err := db.WithContext(ctx).Exec(`
CREATE INDEX IF NOT EXISTS ix_users_cart
ON users (cart_id);
`).Error; err != nil {
			log.Error("ix users.cart_id", zap.Error(err))
			return err
		}

		// Поиск корзины по владельцу (CreateCart, EnsureCart).
		if err := db.WithContext(ctx).Exec(`
CREATE INDEX IF NOT EXISTS ix_carts_user
ON carts (user_id);
`).Error; err != nil {
			log.Error("ix carts.user_id", zap.Error(err))
			return err
		}

		if err := db.WithContext(ctx).Exec(`
CREATE INDEX IF NOT EXISTS ix_products_active_created
ON products (is_active, created_at DESC);
`).Error; err != nil {
			log.Error("ix products active_created", zap.Error(err))
			return err
		}
	}

	if opt.CreateFKsViaSQL {
		// cart_items.cart_id -> carts.id (CASCADE): удаление корзины уносит строки.
		// FK на products намеренно нет: товар удаляется без зачистки корзин.
		if err := db.WithContext(ctx).Exec(`
ALTER TABLE cart_items
  DROP CONSTRAINT IF EXISTS fk_cart_items_cart,
  ADD CONSTRAINT fk_cart_items_cart
    FOREIGN KEY (cart_id) REFERENCES carts(id) ON DELETE CASCADE;
`).Error; err != nil {
			log.Error("fk cart_items.cart_id", zap.Error(err))
			return err
		}
	}

	log.Info("Миграция базы каталога/корзин успешно завершена")
	return nil
}
