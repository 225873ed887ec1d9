package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sadhef/Ri-carts-sub001/internal/infra/rabbitmq"
	"github.com/sadhef/Ri-carts-sub001/internal/repository"
)

type Config struct {
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
}

// Relay moves committed outbox rows onto the message broker. Delivery is at
// least once; consumers dedupe on the message id.
type Relay struct {
	repo      repository.OutboxRepository
	publisher rabbitmq.PublisherInterface
	cfg       Config
	now       func() time.Time
}

func NewRelay(repo repository.OutboxRepository, publisher rabbitmq.PublisherInterface, cfg Config) *Relay {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 10
	}
	return &Relay{repo: repo, publisher: publisher, cfg: cfg, now: time.Now}
}

func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	log.Info().Dur("interval", r.cfg.PollInterval).Msg("outbox relay started")
	for {
		if _, err := r.Tick(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("outbox relay tick failed")
		}

		select {
		case <-ctx.Done():
			log.Info().Msg("outbox relay stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Tick publishes one batch of pending events and reports how many were
// dispatched.
func (r *Relay) Tick(ctx context.Context) (int, error) {
	events, err := r.repo.FetchPending(ctx, r.cfg.BatchSize)
	if err != nil {
		return 0, err
	}

	dispatched := 0
	for _, evt := range events {
		if ctx.Err() != nil {
			return dispatched, ctx.Err()
		}

		pubErr := r.publisher.Publish(ctx, evt.EventType, evt.ID, json.RawMessage(evt.Payload))
		if pubErr == nil {
			if err := r.repo.MarkDispatched(ctx, evt.ID, r.now()); err != nil {
				return dispatched, err
			}
			dispatched++
			continue
		}

		attempts := evt.Attempts + 1
		final := attempts >= r.cfg.MaxAttempts
		logEvt := log.Warn()
		if final {
			logEvt = log.Error()
		}
		logEvt.Err(pubErr).
			Str("event_id", evt.ID).
			Str("event_type", evt.EventType).
			Uint64("order_id", evt.AggregateID).
			Int("attempts", attempts).
			Bool("gave_up", final).
			Msg("failed to publish outbox event")

		if err := r.repo.MarkAttemptFailed(ctx, evt.ID, attempts, pubErr.Error(), final); err != nil {
			return dispatched, err
		}
	}
	return dispatched, nil
}
