package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sadhef/Ri-carts-sub001/internal/domain"
	"github.com/sadhef/Ri-carts-sub001/internal/repository"
)

type FulfillmentService struct {
	orders repository.OrderRepository
	now    func() time.Time
}

func NewFulfillmentService(orders repository.OrderRepository) *FulfillmentService {
	return &FulfillmentService{orders: orders, now: time.Now}
}

// AssignTracking marks an order shipped under the given tracking number.
func (s *FulfillmentService) AssignTracking(ctx context.Context, orderID uint64, tracking string) (*domain.Order, error) {
	tracking = strings.TrimSpace(tracking)
	if tracking == "" {
		return nil, domain.NewError(domain.CodeValidation, "trackingNumber is required")
	}

	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	from := order.Status

	next := *order
	if err := next.Transition(domain.StatusShipped); err != nil {
		return nil, err
	}
	shippedAt := s.now().UTC()
	next.TrackingNumber = &tracking
	next.ShippedAt = &shippedAt

	evt, err := domain.NewOutboxEvent(domain.EventOrderShipped, domain.NewOrderEvent(&next, shippedAt))
	if err != nil {
		return nil, err
	}

	applied, err := s.orders.Transition(ctx, order.ID, from, repository.OrderChanges{
		"status":          next.Status,
		"tracking_number": tracking,
		"shipped_at":      shippedAt,
	}, evt)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, domain.NewError(domain.CodeInvalidTransition, "order %s changed concurrently", order.OrderNumber)
	}

	log.Info().Uint64("order_id", order.ID).Str("tracking_number", tracking).Msg("order shipped")
	return &next, nil
}

// UpdateStatus is the administrative status change. Only DELIVERED and
// CANCELLED may be set this way.
func (s *FulfillmentService) UpdateStatus(ctx context.Context, orderID uint64, status string) (*domain.Order, error) {
	target, err := domain.ParseOrderStatus(status)
	if err != nil {
		return nil, err
	}
	if target != domain.StatusDelivered && target != domain.StatusCancelled {
		return nil, domain.NewError(domain.CodeValidation, "status %s cannot be set directly", target)
	}

	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	from := order.Status

	next := *order
	if err := next.Transition(target); err != nil {
		return nil, err
	}

	applied, err := s.orders.Transition(ctx, order.ID, from, repository.OrderChanges{"status": target}, nil)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, domain.NewError(domain.CodeInvalidTransition, "order %s changed concurrently", order.OrderNumber)
	}

	log.Info().Uint64("order_id", order.ID).Str("from", string(from)).Str("to", string(target)).Msg("order status updated")
	return &next, nil
}

func (s *FulfillmentService) load(ctx context.Context, orderID uint64) (*domain.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}
