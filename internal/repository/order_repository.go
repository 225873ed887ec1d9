package repository

import (
	"context"
	"time"

	"github.com/sadhef/Ri-carts-sub001/internal/domain"
)

// OrderRepository persists orders. Find methods return (nil, nil) when the
// order does not exist.
type OrderRepository interface {
	// CreateWithStock decrements stock for every line, assigns the next order
	// number, inserts the order and its order.created outbox event in a single
	// transaction. Nothing is written when any step fails.
	CreateWithStock(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id uint64) (*domain.Order, error)
	FindByUserID(ctx context.Context, userID string) ([]domain.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, error)
	// Transition applies changes only while the order is still in status from,
	// recording event in the same transaction. It reports false when the
	// order had already moved on.
	Transition(ctx context.Context, id uint64, from domain.OrderStatus, changes OrderChanges, event *domain.OutboxEvent) (bool, error)
	// AttachGatewayOrder links a remote payment order to a pending order that
	// has none yet.
	AttachGatewayOrder(ctx context.Context, id uint64, gatewayOrderID string) (bool, error)
}

type OrderFilter struct {
	Status domain.OrderStatus
	Limit  int
}

// OrderChanges maps column names to new values.
type OrderChanges map[string]any

type ProductRepository interface {
	FindByID(ctx context.Context, id uint64) (*domain.Product, error)
	FindByIDs(ctx context.Context, ids []uint64) (map[uint64]domain.Product, error)
	Create(ctx context.Context, p *domain.Product) error
	AdjustStock(ctx context.Context, id uint64, delta int64) (*domain.Product, error)
}

type OutboxRepository interface {
	FetchPending(ctx context.Context, limit int) ([]domain.OutboxEvent, error)
	MarkDispatched(ctx context.Context, id string, at time.Time) error
	MarkAttemptFailed(ctx context.Context, id string, attempts int, lastErr string, final bool) error
}
