package services

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/sadhef/Ri-carts-sub001/internal/domain"
	"github.com/sadhef/Ri-carts-sub001/internal/infra"
	"github.com/sadhef/Ri-carts-sub001/internal/repository"
)

type PaymentService struct {
	orders  repository.OrderRepository
	gateway infra.PaymentGateway
	now     func() time.Time
}

func NewPaymentService(orders repository.OrderRepository, gateway infra.PaymentGateway) *PaymentService {
	return &PaymentService{orders: orders, gateway: gateway, now: time.Now}
}

type PaymentIntent struct {
	GatewayOrderID string
	Amount         int64
	Currency       string
	KeyID          string
	Name           string
	Email          string
	Phone          string
	OrderNumber    string
}

// CreatePaymentIntent opens a remote payment order for an unpaid order and
// returns what the checkout widget needs to collect it.
func (s *PaymentService) CreatePaymentIntent(ctx context.Context, caller Caller, orderID uint64) (*PaymentIntent, error) {
	order, err := s.loadOwned(ctx, caller, orderID)
	if err != nil {
		return nil, err
	}
	if order.GatewayOrderID != nil || order.GatewayPaymentID != nil || order.Status != domain.StatusPending {
		return nil, domain.NewError(domain.CodeAlreadyPaid, "order %s is already paid or has a payment in progress", order.OrderNumber)
	}

	notes := map[string]string{
		"order_id":     strconv.FormatUint(order.ID, 10),
		"order_number": order.OrderNumber,
	}
	remote, err := s.gateway.CreateOrder(ctx, order.TotalAmount, order.Currency, order.OrderNumber, notes)
	if err != nil {
		log.Error().Err(err).Uint64("order_id", order.ID).Msg("failed to create payment order")
		return nil, err
	}

	attached, err := s.orders.AttachGatewayOrder(ctx, order.ID, remote.ID)
	if err != nil {
		return nil, err
	}
	if !attached {
		return nil, domain.NewError(domain.CodeAlreadyPaid, "order %s already has a payment in progress", order.OrderNumber)
	}

	log.Info().Uint64("order_id", order.ID).Str("gateway_order_id", remote.ID).Msg("payment intent created")

	addr := order.Address()
	return &PaymentIntent{
		GatewayOrderID: remote.ID,
		Amount:         remote.Amount,
		Currency:       remote.Currency,
		KeyID:          s.gateway.KeyID(),
		Name:           addr.FullName,
		Email:          addr.Email,
		Phone:          addr.Phone,
		OrderNumber:    order.OrderNumber,
	}, nil
}

type VerifyPaymentInput struct {
	OrderID          uint64
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
}

type VerifyPaymentResult struct {
	Success       bool
	Amount        decimal.Decimal
	Status        domain.OrderStatus
	PaymentStatus domain.PaymentStatus
	OrderNumber   string
}

// VerifyPayment settles an order once the checkout callback signature checks
// out. Replaying the same successful callback is harmless.
func (s *PaymentService) VerifyPayment(ctx context.Context, caller Caller, in VerifyPaymentInput) (*VerifyPaymentResult, error) {
	if in.OrderID == 0 || strings.TrimSpace(in.GatewayOrderID) == "" || strings.TrimSpace(in.GatewayPaymentID) == "" || strings.TrimSpace(in.Signature) == "" {
		return nil, domain.NewError(domain.CodeValidation, "orderId, gatewayOrderId, gatewayPaymentId and signature are required")
	}

	order, err := s.loadOwned(ctx, caller, in.OrderID)
	if err != nil {
		return nil, err
	}
	if order.GatewayOrderID == nil || *order.GatewayOrderID != in.GatewayOrderID {
		return nil, domain.NewError(domain.CodeValidation, "payment order %s does not belong to order %s", in.GatewayOrderID, order.OrderNumber)
	}

	if !s.gateway.VerifySignature(in.GatewayOrderID, in.GatewayPaymentID, in.Signature) {
		log.Warn().Uint64("order_id", order.ID).Str("gateway_payment_id", in.GatewayPaymentID).Msg("payment signature mismatch")
		return nil, domain.ErrSignatureMismatch
	}

	if settledWith(order, in.GatewayPaymentID) {
		return verifiedResult(order), nil
	}
	if order.GatewayPaymentID != nil {
		return nil, domain.NewError(domain.CodeAlreadyPaid, "order %s was paid with a different payment", order.OrderNumber)
	}

	next := *order
	if err := next.Transition(domain.StatusProcessing); err != nil {
		return nil, err
	}

	method := order.PaymentMethod
	paid := order.TotalAmount
	if remote, err := s.gateway.FetchPayment(ctx, in.GatewayPaymentID); err != nil {
		log.Warn().Err(err).Str("gateway_payment_id", in.GatewayPaymentID).Msg("could not fetch payment details, settling with order total")
	} else {
		if remote.Method != "" {
			method = remote.Method
		}
		if remote.Amount > 0 {
			paid = domain.FromMinorUnits(remote.Amount)
		}
	}

	paidAt := s.now().UTC()
	next.PaymentStatus = domain.PaymentPaid
	next.PaymentMethod = method
	next.GatewayPaymentID = &in.GatewayPaymentID
	next.PaidAt = &paidAt

	payload := domain.NewOrderEvent(&next, paidAt)
	payload.PaidAmount = &paid
	evt, err := domain.NewOutboxEvent(domain.EventOrderPaid, payload)
	if err != nil {
		return nil, err
	}

	applied, err := s.orders.Transition(ctx, order.ID, domain.StatusPending, repository.OrderChanges{
		"status":             next.Status,
		"payment_status":     next.PaymentStatus,
		"payment_method":     next.PaymentMethod,
		"gateway_payment_id": in.GatewayPaymentID,
		"paid_at":            paidAt,
	}, evt)
	if err != nil {
		return nil, err
	}
	if !applied {
		// A concurrent callback may have settled the same payment first.
		current, err := s.orders.FindByID(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		if current != nil && settledWith(current, in.GatewayPaymentID) {
			return verifiedResult(current), nil
		}
		return nil, domain.NewError(domain.CodeAlreadyPaid, "order %s changed while verifying payment", order.OrderNumber)
	}

	log.Info().
		Uint64("order_id", order.ID).
		Str("gateway_payment_id", in.GatewayPaymentID).
		Str("amount", paid.StringFixed(2)).
		Msg("payment verified")

	res := verifiedResult(&next)
	res.Amount = paid
	return res, nil
}

func settledWith(o *domain.Order, paymentID string) bool {
	return o.GatewayPaymentID != nil && *o.GatewayPaymentID == paymentID && o.PaymentStatus == domain.PaymentPaid
}

func verifiedResult(o *domain.Order) *VerifyPaymentResult {
	return &VerifyPaymentResult{
		Success:       true,
		Amount:        o.TotalAmount,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		OrderNumber:   o.OrderNumber,
	}
}

func (s *PaymentService) loadOwned(ctx context.Context, caller Caller, orderID uint64) (*domain.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrOrderNotFound
	}
	if !caller.owns(order) {
		return nil, domain.ErrForbidden
	}
	return order, nil
}
