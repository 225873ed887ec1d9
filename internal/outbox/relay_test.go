package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/sadhef/Ri-carts-sub001/internal/domain"
	"github.com/sadhef/Ri-carts-sub001/internal/mocks"
)

func pendingEvent(id, eventType string, attempts int) domain.OutboxEvent {
	return domain.OutboxEvent{
		ID:          id,
		AggregateID: 1,
		EventType:   eventType,
		Payload:     datatypes.JSON(`{"orderId":1}`),
		Status:      domain.OutboxPending,
		Attempts:    attempts,
	}
}

func TestTick_PublishesAndMarksDispatched(t *testing.T) {
	repo := new(mocks.MockOutboxRepository)
	pub := new(mocks.MockPublisher)
	relay := NewRelay(repo, pub, Config{BatchSize: 5, MaxAttempts: 3})
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	relay.now = func() time.Time { return fixed }
	ctx := context.Background()

	repo.On("FetchPending", ctx, 5).Return([]domain.OutboxEvent{
		pendingEvent("e1", domain.EventOrderCreated, 0),
		pendingEvent("e2", domain.EventOrderPaid, 0),
	}, nil)
	pub.On("Publish", ctx, domain.EventOrderCreated, "e1", json.RawMessage(`{"orderId":1}`)).Return(nil)
	pub.On("Publish", ctx, domain.EventOrderPaid, "e2", mock.Anything).Return(nil)
	repo.On("MarkDispatched", ctx, "e1", fixed).Return(nil)
	repo.On("MarkDispatched", ctx, "e2", fixed).Return(nil)

	n, err := relay.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	repo.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestTick_FailureBumpsAttempts(t *testing.T) {
	repo := new(mocks.MockOutboxRepository)
	pub := new(mocks.MockPublisher)
	relay := NewRelay(repo, pub, Config{BatchSize: 5, MaxAttempts: 3})
	ctx := context.Background()

	repo.On("FetchPending", ctx, 5).Return([]domain.OutboxEvent{
		pendingEvent("e1", domain.EventOrderShipped, 0),
		pendingEvent("e2", domain.EventOrderRefunded, 2),
	}, nil)
	pub.On("Publish", ctx, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("channel closed"))
	repo.On("MarkAttemptFailed", ctx, "e1", 1, "channel closed", false).Return(nil)
	repo.On("MarkAttemptFailed", ctx, "e2", 3, "channel closed", true).Return(nil)

	n, err := relay.Tick(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "MarkDispatched", mock.Anything, mock.Anything, mock.Anything)
}

func TestTick_FetchError(t *testing.T) {
	repo := new(mocks.MockOutboxRepository)
	pub := new(mocks.MockPublisher)
	relay := NewRelay(repo, pub, Config{})
	ctx := context.Background()

	repo.On("FetchPending", ctx, 50).Return(nil, errors.New("db down"))

	_, err := relay.Tick(ctx)
	assert.EqualError(t, err, "db down")
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRun_StopsOnCancel(t *testing.T) {
	repo := new(mocks.MockOutboxRepository)
	pub := new(mocks.MockPublisher)
	relay := NewRelay(repo, pub, Config{PollInterval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	repo.On("FetchPending", mock.Anything, 50).Return([]domain.OutboxEvent{}, nil)

	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()

	time.Sleep(35 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("relay did not stop")
	}
	assert.GreaterOrEqual(t, len(repo.Calls), 2)
}
