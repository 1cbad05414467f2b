package service

import (
	"context"
	"strings"

	"cart-service/internal/models"
	"cart-service/internal/repository"

	"github.com/google/uuid"
)

type ProductInput struct {
	Name          string
	Description   string
	Category      string
	PriceCents    int64
	StockQuantity int32
}

type ProductPatch struct {
	Name          *string
	Description   *string
	Category      *string
	PriceCents    *int64
	StockQuantity *int32
}

type ProductListFilter struct {
	Category      string
	OnlyActive    *bool
	MinPriceCents *int64
	MaxPriceCents *int64
	Query         string
	Limit         int
	Offset        int
}

type ProductService struct {
	repo *repository.Repository
}

func NewProductService(repo *repository.Repository) *ProductService {
	return &ProductService{repo: repo}
}

func (s *ProductService) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	p := &models.Product{
		Name:          strings.TrimSpace(in.Name),
		Description:   strings.TrimSpace(in.Description),
		Category:      strings.TrimSpace(in.Category),
		PriceCents:    in.PriceCents,
		StockQuantity: in.StockQuantity,
		// активность всегда производная от остатка
		IsActive: in.StockQuantity > 0,
	}
	if err := s.repo.Products.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProductService) GetProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	p, err := s.repo.Products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProductNotFound
	}
	return p, nil
}

func (s *ProductService) ListProducts(ctx context.Context, f ProductListFilter) ([]models.Product, int64, error) {
	return s.repo.Products.List(ctx, repository.ProductListFilter{
		Category:      f.Category,
		OnlyActive:    f.OnlyActive,
		MinPriceCents: f.MinPriceCents,
		MaxPriceCents: f.MaxPriceCents,
		Query:         f.Query,
		Limit:         f.Limit,
		Offset:        f.Offset,
	})
}

// UpdateProduct — полная замена полей (PUT). Остаток проходит через
// StockRepo.SetStock, чтобы пересчёт is_active остался в одном месте.
func (s *ProductService) UpdateProduct(ctx context.Context, productID uuid.UUID, in ProductInput) (*models.Product, error) {
	p, err := s.repo.Products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProductNotFound
	}

	fields := map[string]any{
		"name":        strings.TrimSpace(in.Name),
		"description": strings.TrimSpace(in.Description),
		"category":    strings.TrimSpace(in.Category),
		"price_cents": in.PriceCents,
	}
	if err := s.repo.Products.UpdateFields(ctx, productID, fields); err != nil {
		return nil, err
	}
	if _, ok, err := s.repo.Stock.SetStock(ctx, productID, in.StockQuantity); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrProductNotFound
	}

	return s.GetProduct(ctx, productID)
}

// PatchProduct — частичное обновление. nil-поля не трогаем.
func (s *ProductService) PatchProduct(ctx context.Context, productID uuid.UUID, patch ProductPatch) (*models.Product, error) {
	p, err := s.repo.Products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProductNotFound
	}

	fields := map[string]any{}
	if patch.Name != nil {
		fields["name"] = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		fields["description"] = strings.TrimSpace(*patch.Description)
	}
	if patch.Category != nil {
		fields["category"] = strings.TrimSpace(*patch.Category)
	}
	if patch.PriceCents != nil {
		fields["price_cents"] = *patch.PriceCents
	}
	if err := s.repo.Products.UpdateFields(ctx, productID, fields); err != nil {
		return nil, err
	}

	if patch.StockQuantity != nil {
		if _, ok, err := s.repo.Stock.SetStock(ctx, productID, *patch.StockQuantity); err != nil {
			return nil, err
		} else if !ok {
			return nil, ErrProductNotFound
		}
	}

	return s.GetProduct(ctx, productID)
}

// DeleteProduct удаляет товар без зачистки корзин: строки с его резервом
// остаются, checkout их молча пропустит.
func (s *ProductService) DeleteProduct(ctx context.Context, productID uuid.UUID) error {
	ok, err := s.repo.Products.Delete(ctx, productID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrProductNotFound
	}
	return nil
}
