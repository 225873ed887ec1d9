package services

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sadhef/Ri-carts-sub001/internal/domain"
	"github.com/sadhef/Ri-carts-sub001/internal/infra"
	"github.com/sadhef/Ri-carts-sub001/internal/repository"
)

type ProductService struct {
	repo  repository.ProductRepository
	cache infra.ProductCache
}

func NewProductService(r repository.ProductRepository) *ProductService {
	return &ProductService{repo: r}
}

func (s *ProductService) SetProductCache(c infra.ProductCache) {
	s.cache = c
}

func (s *ProductService) GetProduct(ctx context.Context, id uint64) (*domain.Product, error) {
	if s.cache != nil {
		if p, ok := s.cache.Get(ctx, id); ok {
			return p, nil
		}
	}

	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.NewError(domain.CodeProductNotFound, "product %d not found", id)
	}

	if s.cache != nil {
		s.cache.Set(ctx, p)
	}
	return p, nil
}

type CreateProductInput struct {
	Name         string
	SKU          string
	Price        decimal.Decimal
	ComparePrice decimal.Decimal
	Image        string
	Stock        int64
}

func (s *ProductService) CreateProduct(ctx context.Context, in CreateProductInput) (*domain.Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.NewError(domain.CodeValidation, "name is required")
	}
	if !in.Price.IsPositive() {
		return nil, domain.NewError(domain.CodeValidation, "price must be positive")
	}
	if in.ComparePrice.IsNegative() {
		return nil, domain.NewError(domain.CodeValidation, "comparePrice must not be negative")
	}
	if in.Stock < 0 {
		return nil, domain.NewError(domain.CodeValidation, "stock must not be negative")
	}

	compare := in.ComparePrice
	if compare.IsZero() {
		compare = in.Price
	}
	p := &domain.Product{
		Name:         name,
		SKU:          strings.TrimSpace(in.SKU),
		Price:        domain.Cents(in.Price),
		ComparePrice: domain.Cents(compare),
		Image:        in.Image,
		Stock:        in.Stock,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// AdjustStock restocks (positive delta) or writes off (negative delta) units.
func (s *ProductService) AdjustStock(ctx context.Context, id uint64, delta int64) (*domain.Product, error) {
	if delta == 0 {
		return nil, domain.NewError(domain.CodeValidation, "delta must not be zero")
	}
	p, err := s.repo.AdjustStock(ctx, id, delta)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, id)
	}
	return p, nil
}
