package mysql

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/sadhef/Ri-carts-sub001/internal/domain"
	"github.com/sadhef/Ri-carts-sub001/internal/repository"

	"gorm.io/gorm"
)

const defaultListLimit = 100

type orderRepo struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) repository.OrderRepository {
	return &orderRepo{db: db}
}

func (r *orderRepo) CreateWithStock(ctx context.Context, order *domain.Order) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range order.Items {
			if err := decrementStock(tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		n, err := nextSequence(tx, domain.OrderNumberSequence)
		if err != nil {
			return err
		}
		order.OrderNumber = domain.FormatOrderNumber(n)

		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		if order.ID == 0 {
			return errors.New("failed to assign order ID")
		}

		evt, err := domain.NewOutboxEvent(domain.EventOrderCreated, domain.NewOrderEvent(order, order.CreatedAt))
		if err != nil {
			return err
		}
		if err := tx.Create(evt).Error; err != nil {
			return fmt.Errorf("insert outbox event: %w", err)
		}
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Str("user_id", order.UserID).Msg("order placement rolled back")
		return err
	}

	log.Info().Uint64("order_id", order.ID).Str("order_number", order.OrderNumber).Msg("order saved")
	return nil
}

func (r *orderRepo) FindByID(ctx context.Context, id uint64) (*domain.Order, error) {
	var o domain.Order
	if err := r.db.WithContext(ctx).Preload("Items").First(&o, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find order %d: %w", id, err)
	}
	return &o, nil
}

func (r *orderRepo) FindByUserID(ctx context.Context, userID string) ([]domain.Order, error) {
	var out []domain.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("find orders for user %s: %w", userID, err)
	}
	return out, nil
}

func (r *orderRepo) List(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, error) {
	limit := filter.Limit
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}

	q := r.db.WithContext(ctx).Preload("Items").Order("id DESC").Limit(limit)
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var out []domain.Order
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return out, nil
}

func (r *orderRepo) Transition(ctx context.Context, id uint64, from domain.OrderStatus, changes repository.OrderChanges, event *domain.OutboxEvent) (bool, error) {
	applied := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Order{}).
			Where("id = ? AND status = ?", id, from).
			Updates(map[string]any(changes))
		if res.Error != nil {
			return fmt.Errorf("update order %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}
		applied = true

		if event != nil {
			if err := tx.Create(event).Error; err != nil {
				return fmt.Errorf("insert outbox event: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

func (r *orderRepo) AttachGatewayOrder(ctx context.Context, id uint64, gatewayOrderID string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.Order{}).
		Where("id = ? AND status = ? AND gateway_order_id IS NULL AND gateway_payment_id IS NULL", id, domain.StatusPending).
		Update("gateway_order_id", gatewayOrderID)
	if res.Error != nil {
		return false, fmt.Errorf("attach gateway order to %d: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// nextSequence increments the named counter and returns its new value. The
// UPDATE holds the row lock until the surrounding transaction ends, so
// concurrent callers always see distinct values.
func nextSequence(tx *gorm.DB, name string) (uint64, error) {
	res := tx.Model(&domain.Sequence{}).Where("name = ?", name).Update("value", gorm.Expr("value + ?", 1))
	if res.Error != nil {
		return 0, fmt.Errorf("advance sequence %s: %w", name, res.Error)
	}
	if res.RowsAffected == 0 {
		seq := domain.Sequence{Name: name, Value: 1}
		if err := tx.Create(&seq).Error; err != nil {
			return 0, fmt.Errorf("create sequence %s: %w", name, err)
		}
		return seq.Value, nil
	}

	var seq domain.Sequence
	if err := tx.Where("name = ?", name).First(&seq).Error; err != nil {
		return 0, fmt.Errorf("read sequence %s: %w", name, err)
	}
	return seq.Value, nil
}
