package infra

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sadhef/Ri-carts-sub001/internal/domain"
)

type PaymentGateway interface {
	// CreateOrder registers amount with the provider and returns the remote
	// order the client completes checkout against.
	CreateOrder(ctx context.Context, amount decimal.Decimal, currency, receipt string, notes map[string]string) (*RemoteOrder, error)
	VerifySignature(orderID, paymentID, signature string) bool
	FetchPayment(ctx context.Context, paymentID string) (*RemotePayment, error)
	// CreateRefund refunds amountMinor of a captured payment, or all of it
	// when amountMinor is nil.
	CreateRefund(ctx context.Context, paymentID string, amountMinor *int64, notes map[string]string) (*RemoteRefund, error)
	KeyID() string
}

type ProductCache interface {
	Get(ctx context.Context, id uint64) (*domain.Product, bool)
	Set(ctx context.Context, p *domain.Product)
	Invalidate(ctx context.Context, ids ...uint64)
}

type Locker interface {
	// Acquire takes key for at most ttl. ok is false when someone else holds it.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}
