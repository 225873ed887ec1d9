package mocks

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/sadhef/Ri-carts-sub001/internal/domain"
	"github.com/sadhef/Ri-carts-sub001/internal/infra"
	"github.com/sadhef/Ri-carts-sub001/internal/infra/rabbitmq"
	"github.com/sadhef/Ri-carts-sub001/internal/repository"
)

var (
	_ repository.OrderRepository   = (*MockOrderRepository)(nil)
	_ repository.ProductRepository = (*MockProductRepository)(nil)
	_ repository.OutboxRepository  = (*MockOutboxRepository)(nil)
	_ rabbitmq.PublisherInterface  = (*MockPublisher)(nil)
	_ infra.PaymentGateway         = (*MockPaymentGateway)(nil)
	_ infra.ProductCache           = (*MockProductCache)(nil)
	_ infra.Locker                 = (*MockLocker)(nil)
)

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) CreateWithStock(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uint64) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByUserID(ctx context.Context, userID string) ([]domain.Order, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *MockOrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *MockOrderRepository) Transition(ctx context.Context, id uint64, from domain.OrderStatus, changes repository.OrderChanges, event *domain.OutboxEvent) (bool, error) {
	args := m.Called(ctx, id, from, changes, event)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) AttachGatewayOrder(ctx context.Context, id uint64, gatewayOrderID string) (bool, error) {
	args := m.Called(ctx, id, gatewayOrderID)
	return args.Bool(0), args.Error(1)
}

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uint64) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, ids []uint64) (map[uint64]domain.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uint64]domain.Product), args.Error(1)
}

func (m *MockProductRepository) Create(ctx context.Context, p *domain.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockProductRepository) AdjustStock(ctx context.Context, id uint64, delta int64) (*domain.Product, error) {
	args := m.Called(ctx, id, delta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

type MockOutboxRepository struct {
	mock.Mock
}

func (m *MockOutboxRepository) FetchPending(ctx context.Context, limit int) ([]domain.OutboxEvent, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.OutboxEvent), args.Error(1)
}

func (m *MockOutboxRepository) MarkDispatched(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockOutboxRepository) MarkAttemptFailed(ctx context.Context, id string, attempts int, lastErr string, final bool) error {
	args := m.Called(ctx, id, attempts, lastErr, final)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, pattern, id string, data json.RawMessage) error {
	args := m.Called(ctx, pattern, id, data)
	return args.Error(0)
}

type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) CreateOrder(ctx context.Context, amount decimal.Decimal, currency, receipt string, notes map[string]string) (*infra.RemoteOrder, error) {
	args := m.Called(ctx, amount, currency, receipt, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*infra.RemoteOrder), args.Error(1)
}

func (m *MockPaymentGateway) VerifySignature(orderID, paymentID, signature string) bool {
	args := m.Called(orderID, paymentID, signature)
	return args.Bool(0)
}

func (m *MockPaymentGateway) FetchPayment(ctx context.Context, paymentID string) (*infra.RemotePayment, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*infra.RemotePayment), args.Error(1)
}

func (m *MockPaymentGateway) CreateRefund(ctx context.Context, paymentID string, amountMinor *int64, notes map[string]string) (*infra.RemoteRefund, error) {
	args := m.Called(ctx, paymentID, amountMinor, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*infra.RemoteRefund), args.Error(1)
}

func (m *MockPaymentGateway) KeyID() string {
	args := m.Called()
	return args.String(0)
}

type MockProductCache struct {
	mock.Mock
}

func (m *MockProductCache) Get(ctx context.Context, id uint64) (*domain.Product, bool) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*domain.Product), args.Bool(1)
}

func (m *MockProductCache) Set(ctx context.Context, p *domain.Product) {
	m.Called(ctx, p)
}

func (m *MockProductCache) Invalidate(ctx context.Context, ids ...uint64) {
	m.Called(ctx, ids)
}

type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	args := m.Called(ctx, key, ttl)
	release, _ := args.Get(0).(func())
	return release, args.Bool(1), args.Error(2)
}
