package mysql

import (
	"context"
	"errors"
	"fmt"

	"github.com/sadhef/Ri-carts-sub001/internal/domain"
	"github.com/sadhef/Ri-carts-sub001/internal/repository"

	"gorm.io/gorm"
)

type productRepo struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) repository.ProductRepository {
	return &productRepo{db: db}
}

func (r *productRepo) FindByID(ctx context.Context, id uint64) (*domain.Product, error) {
	var p domain.Product
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find product %d: %w", id, err)
	}
	return &p, nil
}

func (r *productRepo) FindByIDs(ctx context.Context, ids []uint64) (map[uint64]domain.Product, error) {
	out := make(map[uint64]domain.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []domain.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	for _, p := range rows {
		out[p.ID] = p
	}
	return out, nil
}

func (r *productRepo) Create(ctx context.Context, p *domain.Product) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// AdjustStock adds delta to the stock counter, refusing to take it below zero.
func (r *productRepo) AdjustStock(ctx context.Context, id uint64, delta int64) (*domain.Product, error) {
	var out domain.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Product{}).
			Where("id = ? AND stock + ? >= 0", id, delta).
			Update("stock", gorm.Expr("stock + ?", delta))
		if res.Error != nil {
			return fmt.Errorf("adjust stock of product %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return stockConflict(tx, id, -delta)
		}
		return tx.First(&out, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// decrementStock takes qty units of a product only if that many are on hand.
func decrementStock(tx *gorm.DB, id uint64, qty int64) error {
	res := tx.Model(&domain.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return fmt.Errorf("decrement stock of product %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return stockConflict(tx, id, qty)
	}
	return nil
}

func stockConflict(tx *gorm.DB, id uint64, wanted int64) error {
	var p domain.Product
	if err := tx.Select("id", "name", "stock").First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.NewError(domain.CodeProductNotFound, "product %d not found", id)
		}
		return fmt.Errorf("read product %d: %w", id, err)
	}
	return domain.NewError(domain.CodeInsufficientStock, "insufficient stock for %q: requested %d, available %d", p.Name, wanted, p.Stock)
}
