package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/sadhef/Ri-carts-sub001/internal/domain"
	"github.com/sadhef/Ri-carts-sub001/internal/infra"
	"github.com/sadhef/Ri-carts-sub001/internal/repository"
)

const refundLockTTL = 30 * time.Second

type RefundService struct {
	orders  repository.OrderRepository
	gateway infra.PaymentGateway
	locker  infra.Locker
	now     func() time.Time
}

func NewRefundService(orders repository.OrderRepository, gateway infra.PaymentGateway) *RefundService {
	return &RefundService{orders: orders, gateway: gateway, now: time.Now}
}

// SetLocker serialises refunds of the same order across instances.
func (s *RefundService) SetLocker(l infra.Locker) {
	s.locker = l
}

type RefundResult struct {
	OrderID     uint64
	OrderNumber string
	RefundID    string
	Amount      decimal.Decimal
	Status      domain.OrderStatus
}

// Refund returns the order's money, through the gateway when it was paid
// online, and moves the order to REFUNDED. A given order is refunded at most
// once.
func (s *RefundService) Refund(ctx context.Context, orderID uint64) (*RefundResult, error) {
	if s.locker != nil {
		release, ok, err := s.locker.Acquire(ctx, fmt.Sprintf("lock:refund:%d", orderID), refundLockTTL)
		switch {
		case err != nil:
			log.Warn().Err(err).Uint64("order_id", orderID).Msg("refund lock unavailable, relying on conditional update")
		case !ok:
			return nil, domain.NewError(domain.CodeAlreadyRefunded, "refund already in progress for order %d", orderID)
		default:
			defer release()
		}
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrOrderNotFound
	}
	if order.Status == domain.StatusRefunded {
		return nil, domain.NewError(domain.CodeAlreadyRefunded, "order %s is already refunded", order.OrderNumber)
	}
	from := order.Status

	next := *order
	if err := next.Transition(domain.StatusRefunded); err != nil {
		return nil, err
	}

	amount := order.TotalAmount
	var refundID *string
	if order.GatewayPaymentID != nil {
		notes := map[string]string{
			"order_id":     strconv.FormatUint(order.ID, 10),
			"order_number": order.OrderNumber,
		}
		remote, err := s.gateway.CreateRefund(ctx, *order.GatewayPaymentID, nil, notes)
		if err != nil {
			log.Error().Err(err).Uint64("order_id", order.ID).Msg("gateway refund failed")
			if domain.CodeOf(err) == domain.CodeRefundProvider {
				return nil, err
			}
			return nil, domain.WrapError(domain.CodeRefundProvider, err, "refund of order %s failed", order.OrderNumber)
		}
		refundID = &remote.ID
		if remote.Amount > 0 {
			amount = domain.FromMinorUnits(remote.Amount)
		}
	}

	refundedAt := s.now().UTC()
	next.PaymentStatus = domain.PaymentRefunded
	next.RefundID = refundID
	next.RefundAmount = &amount
	next.RefundedAt = &refundedAt

	evt, err := domain.NewOutboxEvent(domain.EventOrderRefunded, domain.NewOrderEvent(&next, refundedAt))
	if err != nil {
		return nil, err
	}

	applied, err := s.orders.Transition(ctx, order.ID, from, repository.OrderChanges{
		"status":         domain.StatusRefunded,
		"payment_status": domain.PaymentRefunded,
		"refund_id":      refundID,
		"refund_amount":  amount,
		"refunded_at":    refundedAt,
	}, evt)
	if err != nil {
		return nil, err
	}
	if !applied {
		if refundID != nil {
			log.Error().Uint64("order_id", order.ID).Str("refund_id", *refundID).Msg("gateway refunded but order changed concurrently")
		}
		return nil, domain.NewError(domain.CodeAlreadyRefunded, "order %s was refunded concurrently", order.OrderNumber)
	}

	log.Info().Uint64("order_id", order.ID).Str("amount", amount.StringFixed(2)).Msg("order refunded")

	result := &RefundResult{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Amount:      amount,
		Status:      domain.StatusRefunded,
	}
	if refundID != nil {
		result.RefundID = *refundID
	}
	return result, nil
}
