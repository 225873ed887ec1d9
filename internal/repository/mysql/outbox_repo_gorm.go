package mysql

import (
	"context"
	"fmt"
	"time"

	"github.com/sadhef/Ri-carts-sub001/internal/domain"
	"github.com/sadhef/Ri-carts-sub001/internal/repository"

	"gorm.io/gorm"
)

type outboxRepo struct {
	db *gorm.DB
}

func NewOutboxRepository(db *gorm.DB) repository.OutboxRepository {
	return &outboxRepo{db: db}
}

func (r *outboxRepo) FetchPending(ctx context.Context, limit int) ([]domain.OutboxEvent, error) {
	var out []domain.OutboxEvent
	err := r.db.WithContext(ctx).
		Where("status = ?", domain.OutboxPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("fetch pending outbox events: %w", err)
	}
	return out, nil
}

func (r *outboxRepo) MarkDispatched(ctx context.Context, id string, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&domain.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": domain.OutboxDispatched, "dispatched_at": at}).Error
	if err != nil {
		return fmt.Errorf("mark outbox event %s dispatched: %w", id, err)
	}
	return nil
}

func (r *outboxRepo) MarkAttemptFailed(ctx context.Context, id string, attempts int, lastErr string, final bool) error {
	status := domain.OutboxPending
	if final {
		status = domain.OutboxFailed
	}
	err := r.db.WithContext(ctx).Model(&domain.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "attempts": attempts, "last_error": lastErr}).Error
	if err != nil {
		return fmt.Errorf("record outbox attempt for %s: %w", id, err)
	}
	return nil
}
