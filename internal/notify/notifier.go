package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sadhef/Ri-carts-sub001/internal/domain"
	"github.com/sadhef/Ri-carts-sub001/internal/infra/rabbitmq"
)

// BindingKey matches every order lifecycle event.
const BindingKey = "order.*"

const recentCapacity = 1024

type Notifier struct {
	mailer     Mailer
	maxRetries int
	backoff    time.Duration
	sleep      func(context.Context, time.Duration) error

	mu     sync.Mutex
	seen   map[string]struct{}
	recent []string
}

func NewNotifier(mailer Mailer, maxRetries int, backoff time.Duration) *Notifier {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Notifier{
		mailer:     mailer,
		maxRetries: maxRetries,
		backoff:    backoff,
		sleep:      sleepCtx,
		seen:       make(map[string]struct{}),
	}
}

func (n *Notifier) Run(ctx context.Context, consumer *rabbitmq.Consumer) error {
	log.Info().Str("binding", BindingKey).Msg("notifier started")
	return consumer.Consume(ctx, n.Handle)
}

// Handle sends the email for one event. Delivery failures are logged, never
// returned, so the message is always acknowledged.
func (n *Notifier) Handle(ctx context.Context, msg rabbitmq.Message) error {
	if msg.ID != "" && !n.markSeen(msg.ID) {
		log.Debug().Str("message_id", msg.ID).Msg("skipping redelivered event")
		return nil
	}

	var evt domain.OrderEvent
	if err := json.Unmarshal(msg.Data, &evt); err != nil {
		return fmt.Errorf("decode %s payload: %w", msg.Pattern, err)
	}

	email, ok, err := Render(msg.Pattern, evt)
	if err != nil {
		return err
	}
	if !ok || email.To == "" {
		return nil
	}

	attempts := n.maxRetries + 1
	for i := 1; i <= attempts; i++ {
		err = n.mailer.Send(ctx, email)
		if err == nil {
			log.Info().Str("event", msg.Pattern).Uint64("order_id", evt.OrderID).Msg("notification sent")
			return nil
		}
		if i == attempts {
			break
		}
		log.Warn().Err(err).Str("event", msg.Pattern).Int("attempt", i).Msg("notification send failed, retrying")
		if err := n.sleep(ctx, time.Duration(i)*n.backoff); err != nil {
			return nil
		}
	}

	log.Error().Err(err).
		Str("event", msg.Pattern).
		Uint64("order_id", evt.OrderID).
		Str("order_number", evt.OrderNumber).
		Msg("giving up on notification")
	return nil
}

// markSeen records id and reports whether it was new.
func (n *Notifier) markSeen(id string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, dup := n.seen[id]; dup {
		return false
	}
	n.seen[id] = struct{}{}
	n.recent = append(n.recent, id)
	if len(n.recent) > recentCapacity {
		delete(n.seen, n.recent[0])
		n.recent = n.recent[1:]
	}
	return true
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
