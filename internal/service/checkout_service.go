package service

import (
	"context"
	"time"

	"cart-service/internal/models"
	"cart-service/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CheckoutService завершает жизнь корзины: финализирует продажу,
// пересаживает пользователя на новую пустую корзину и удаляет старую.
//
// Ни один шаг не атомарен с другим. Падение между откреплением старой
// корзины и привязкой новой оставляет пользователя без корзины — это
// чинится UserService.EnsureCart; падение перед удалением старой корзины
// оставляет безвредную осиротевшую запись.
type CheckoutService struct {
	repo *repository.Repository
	bus  EventBus
	log  *zap.Logger
}

// NewCheckoutService: bus может быть nil — тогда события не публикуются.
func NewCheckoutService(repo *repository.Repository, bus EventBus, log *zap.Logger) *CheckoutService {
	return &CheckoutService{repo: repo, bus: bus, log: log}
}

// Checkout возвращает идентификатор новой пустой корзины пользователя.
func (s *CheckoutService) Checkout(ctx context.Context, cartID uuid.UUID) (uuid.UUID, error) {
	cart, err := s.repo.Carts.GetByID(ctx, cartID)
	if err != nil {
		return uuid.Nil, err
	}
	if cart == nil {
		return uuid.Nil, ErrCartNotFound
	}

	// Обратный поиск владельца: если на корзину никто не указывает,
	// она уже оформлена или не была привязана.
	user, err := s.repo.Users.GetByCartID(ctx, cartID)
	if err != nil {
		return uuid.Nil, err
	}
	if user == nil {
		return uuid.Nil, ErrUserNotFound
	}

	// Финализация продажи. Остаток уже не содержит зарезервированного
	// (резерв списан при добавлении в корзину), поэтому повторное вычитание
	// отсекается в ноль, а исчезнувший товар молча пропускается.
	finalized := make([]CheckoutItemEvent, 0, len(cart.Items))
	for productID, qty := range aggregateItems(cart.Items) {
		_, ok, err := s.repo.Stock.FinalizeSale(ctx, productID, qty)
		if err != nil {
			return uuid.Nil, err
		}
		if !ok {
			s.log.Debug("товар удалён до оформления, пропуск",
				zap.String("product_id", productID.String()),
			)
			continue
		}
		finalized = append(finalized, CheckoutItemEvent{ProductID: productID, Quantity: qty})
	}

	if _, err := s.repo.Users.UnsetCart(ctx, user.ID); err != nil {
		return uuid.Nil, err
	}

	newCart := &models.Cart{UserID: user.ID}
	if err := s.repo.Carts.Create(ctx, newCart); err != nil {
		return uuid.Nil, err
	}

	if ok, err := s.repo.Users.SetCart(ctx, user.ID, newCart.ID); err != nil {
		return uuid.Nil, err
	} else if !ok {
		// Пользователь исчез между шагами; новая корзина осталась без владельца.
		s.log.Warn("не удалось привязать новую корзину",
			zap.String("user_id", user.ID.String()),
			zap.String("new_cart_id", newCart.ID.String()),
		)
		return uuid.Nil, ErrUserNotFound
	}

	if ok, err := s.repo.Carts.Delete(ctx, cartID); err != nil {
		return uuid.Nil, err
	} else if !ok {
		s.log.Warn("старая корзина уже удалена", zap.String("cart_id", cartID.String()))
	}

	s.publish(ctx, CartCheckedOutEvent{
		CartID:       cartID,
		NewCartID:    newCart.ID,
		UserID:       user.ID,
		Items:        finalized,
		CheckedOutAt: time.Now().UTC(),
	})

	return newCart.ID, nil
}

// publish — best effort: сага уже завершена, ошибка шины не отменяет покупку.
func (s *CheckoutService) publish(ctx context.Context, e CartCheckedOutEvent) {
	if s.bus == nil {
		return
	}
	if err := s.bus.PublishCartCheckedOut(ctx, e); err != nil {
		s.log.Warn("не удалось опубликовать событие checkout",
			zap.String("cart_id", e.CartID.String()),
			zap.Error(err),
		)
	}
}

func aggregateItems(items []models.CartItem) map[uuid.UUID]int32 {
	agg := make(map[uuid.UUID]int32, len(items))
	for _, it := range items {
		agg[it.ProductID] += it.Quantity
	}
	return agg
}
