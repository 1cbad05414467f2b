package service

import (
	"context"
	"strings"

	"cart-service/internal/models"
	"cart-service/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type UserInput struct {
	Name  string
	Email string
}

type UserService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewUserService(repo *repository.Repository, log *zap.Logger) *UserService {
	return &UserService{repo: repo, log: log}
}

// CreateUser создаёт пользователя и сразу его пустую корзину.
func (s *UserService) CreateUser(ctx context.Context, in UserInput) (*models.User, error) {
	u := &models.User{
		Name:  strings.TrimSpace(in.Name),
		Email: strings.TrimSpace(in.Email),
	}
	if err := s.repo.Users.Create(ctx, u); err != nil {
		return nil, err
	}

	cart := &models.Cart{UserID: u.ID}
	if err := s.repo.Carts.Create(ctx, cart); err != nil {
		return nil, err
	}
	if _, err := s.repo.Users.SetCart(ctx, u.ID, cart.ID); err != nil {
		return nil, err
	}

	u.CartID = &cart.ID
	return u, nil
}

func (s *UserService) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	u, err := s.repo.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, int64, error) {
	return s.repo.Users.List(ctx, limit, offset)
}

func (s *UserService) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	ok, err := s.repo.Users.Delete(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUserNotFound
	}
	return nil
}

// EnsureCart — идемпотентный «найди или создай корзину».
// Чинит пользователя, оставшегося без корзины после падения checkout
// между открепления старой корзины и привязкой новой.
func (s *UserService) EnsureCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	u, err := s.repo.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}

	if u.CartID != nil {
		cart, err := s.repo.Carts.GetByID(ctx, *u.CartID)
		if err != nil {
			return nil, err
		}
		if cart != nil {
			return cart, nil
		}
		// ссылка битая — падаем в восстановление ниже
		s.log.Warn("cart_id пользователя указывает на несуществующую корзину",
			zap.String("user_id", userID.String()),
			zap.String("cart_id", u.CartID.String()),
		)
	}

	// Корзина могла остаться непривязанной (падение до SetCart) —
	// сперва ищем её, и только потом создаём новую.
	if existing, err := s.repo.Carts.GetByUserID(ctx, userID); err != nil {
		return nil, err
	} else if existing != nil {
		if _, err := s.repo.Users.SetCart(ctx, userID, existing.ID); err != nil {
			return nil, err
		}
		return existing, nil
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
