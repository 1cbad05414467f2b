package service

import (
	"context"

	"cart-service/internal/models"
	"cart-service/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CartService координирует двухфазные операции корзина/склад.
// Транзакции между корзиной и товаром нет: порядок записей фиксирован
// (корзина раньше склада при добавлении, склад раньше корзины при
// увеличении количества), а окна рассинхронизации задокументированы.
type CartService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewCartService(repo *repository.Repository, log *zap.Logger) *CartService {
	return &CartService{repo: repo, log: log}
}

// CreateCart создаёт пустую корзину и привязывает её к пользователю.
// Живая корзина у пользователя может быть только одна.
func (s *CartService) CreateCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	u, err := s.repo.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}

	existing, err := s.repo.Carts.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrCartAlreadyExists
	}

	cart := &models.Cart{UserID: userID}
	if err := s.repo.Carts.Create(ctx, cart); err != nil {
		return nil, err
	}
	if _, err := s.repo.Users.SetCart(ctx, userID, cart.ID); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *CartService) GetCart(ctx context.Context, cartID uuid.UUID) (*models.Cart, error) {
	cart, err := s.repo.Carts.GetByID(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, ErrCartNotFound
	}
	return cart, nil
}

// AddItem добавляет товар в корзину и резервирует остаток.
//
// Порядок фиксированный: сначала запись в корзину, затем атомарное списание
// со склада. Если списание не прошло после успешной записи в корзину,
// строка корзины НЕ откатывается — вызывающий получает типизированную
// ошибку, а рассинхронизация чинится следующим успешным запросом.
func (s *CartService) AddItem(ctx context.Context, cartID, productID uuid.UUID, qty int32) (*models.Cart, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}

	// Совещательная проверка: избегаем заведомо бесполезной записи в корзину.
	// Авторитетная проверка — предикат внутри TryReserve ниже.
	p, err := s.repo.Products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProductNotFound
	}
	if !p.IsActive {
		return nil, ErrProductInactive
	}
	if qty > p.StockQuantity {
		return nil, &InsufficientStockError{Requested: qty, Available: p.StockQuantity}
	}

	merged, err := s.repo.Carts.MergeLine(ctx, cartID, productID, qty)
	if err != nil {
		return nil, err
	}
	if !merged {
		exists, err := s.repo.Carts.Exists(ctx, cartID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, ErrCartNotFound
		}
		appended, err := s.repo.Carts.AppendLine(ctx, cartID, productID, qty)
		if err != nil {
			return nil, err
		}
		if !appended {
			return nil, ErrInvariantViolation
		}
	}

	if _, ok, err := s.repo.Stock.TryReserve(ctx, productID, qty); err != nil {
		return nil, err
	} else if !ok {
		s.log.Warn("строка корзины записана, но резерв не прошёл",
			zap.String("cart_id", cartID.String()),
			zap.String("product_id", productID.String()),
			zap.Int32("quantity", qty),
		)
		return nil, s.reserveFailure(ctx, productID, qty)
	}

	return s.GetCart(ctx, cartID)
}

// UpdateItemQuantity меняет количество строки. Увеличение сначала
// резервирует дельту на складе, уменьшение возвращает её безусловно.
func (s *CartService) UpdateItemQuantity(ctx context.Context, cartID, productID uuid.UUID, newQty int32) (*models.Cart, error) {
	if newQty <= 0 {
		return nil, ErrInvalidQuantity
	}

	p, err := s.repo.Products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProductNotFound
	}

	current, found, err := s.repo.Carts.GetLine(ctx, cartID, productID)
	if err != nil {
		return nil, err
	}
	if !found {
		exists, err := s.repo.Carts.Exists(ctx, cartID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, ErrCartNotFound
		}
		return nil, ErrLineNotFound
	}

	delta := newQty - current
	if delta == 0 {
		return s.GetCart(ctx, cartID)
	}

	if delta > 0 {
		if _, ok, err := s.repo.Stock.TryReserve(ctx, productID, delta); err != nil {
			return nil, err
		} else if !ok {
			return nil, s.reserveFailure(ctx, productID, delta)
		}
		if ok, err := s.repo.Carts.SetLineQuantity(ctx, cartID, productID, newQty); err != nil {
			return nil, err
		} else if !ok {
			return nil, ErrLineNotFound
		}
		return s.GetCart(ctx, cartID)
	}

	// delta < 0: возврат на склад безусловный, проверка остатка не нужна.
	if ok, err := s.repo.Carts.SetLineQuantity(ctx, cartID, productID, newQty); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrLineNotFound
	}
	if _, ok, err := s.repo.Stock.Release(ctx, productID, -delta); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrProductNotFound
	}
	return s.GetCart(ctx, cartID)
}

// RemoveItem снимает строку и возвращает её количество на склад.
// Активность товара пересчитывается внутри Release.
func (s *CartService) RemoveItem(ctx context.Context, cartID, productID uuid.UUID) (*models.Cart, error) {
	qty, removed, err := s.repo.Carts.RemoveLine(ctx, cartID, productID)
	if err != nil {
		return nil, err
	}
	if !removed {
		exists, err := s.repo.Carts.Exists(ctx, cartID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, ErrCartNotFound
		}
		return nil, ErrLineNotFound
	}

	if _, ok, err := s.repo.Stock.Release(ctx, productID, qty); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrProductNotFound
	}

	return s.GetCart(ctx, cartID)
}

// ClearCart снимает все строки и возвращает остатки одним Release
// на каждый уникальный товар.
func (s *CartService) ClearCart(ctx context.Context, cartID uuid.UUID) (*models.Cart, error) {
	exists, err := s.repo.Carts.Exists(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrCartNotFound
	}

	removed, err := s.repo.Carts.Clear(ctx, cartID)
	if err != nil {
		return nil, err
	}

	for productID, qty := range aggregateLines(removed) {
		if _, ok, err := s.repo.Stock.Release(ctx, productID, qty); err != nil {
			return nil, err
		} else if !ok {
			return nil, ErrProductNotFound
		}
	}

	return s.GetCart(ctx, cartID)
}

// reserveFailure различает причину отказа условного UPDATE повторным чтением.
func (s *CartService) reserveFailure(ctx context.Context, productID uuid.UUID, qty int32) error {
	p, err := s.repo.Products.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if p == nil {
		return ErrProductNotFound
	}
	if !p.IsActive {
		return ErrProductInactive
	}
	return &InsufficientStockError{Requested: qty, Available: p.StockQuantity}
}

// aggregateLines сводит дубли product_id в одну величину на товар.
func aggregateLines(lines []repository.RemovedLine) map[uuid.UUID]int32 {
	agg := make(map[uuid.UUID]int32, len(lines))
	for _, l := range lines {
		agg[l.ProductID] += l.Quantity
	}
	return agg
}
