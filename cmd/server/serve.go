package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sadhef/Ri-carts-sub001/internal/config"
	httpapi "github.com/sadhef/Ri-carts-sub001/internal/controllers/http"
	"github.com/sadhef/Ri-carts-sub001/internal/infra/rabbitmq"
	"github.com/sadhef/Ri-carts-sub001/internal/notify"
	"github.com/sadhef/Ri-carts-sub001/internal/outbox"
	"github.com/sadhef/Ri-carts-sub001/internal/ratelimit"
	"github.com/sadhef/Ri-carts-sub001/internal/repository"
)

const shutdownTimeout = 15 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the outbox relay and the notification consumer",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := openDeps(ctx, cfg)
	if err != nil {
		return err
	}
	defer d.Close()

	msg, err := openMessaging(cfg, d.outbox)
	if err != nil {
		return err
	}
	if msg == nil {
		log.Warn().Msg("rabbitmq.url not set, outbox events stay pending until a relay runs")
	} else {
		defer msg.Close()
	}

	// Nothing below may fail before g.Wait, so every goroutine is joined
	// before the deferred closes run.
	g, gctx := errgroup.WithContext(ctx)
	if msg != nil {
		g.Go(func() error { return msg.relay.Run(gctx) })
		g.Go(func() error { return msg.notifier.Run(gctx, msg.consumer) })
	}

	limiter := ratelimit.New(cfg.Rate.RPS, cfg.Rate.Burst, cfg.Rate.IdleTTL)
	limiter.Start(gctx)
	defer limiter.Stop()

	svc := d.services()
	handler := httpapi.NewHandler(svc.orders, svc.payments, svc.fulfillment, svc.refunds, svc.products)

	if cfg.App.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      httpapi.NewRouter(handler, []byte(cfg.JWT.Secret), limiter),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	g.Go(func() error {
		log.Info().Str("port", cfg.HTTP.Port).Str("env", cfg.App.Env).Msg("starting order service")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info().Msg("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// messaging is the broker side of serve: the outbox relay and the
// notification consumer, built but not yet running.
type messaging struct {
	publisher *rabbitmq.Publisher
	consumer  *rabbitmq.Consumer
	relay     *outbox.Relay
	notifier  *notify.Notifier
}

// openMessaging connects to the broker. It returns nil when no broker is
// configured, and closes whatever it opened when a later step fails.
func openMessaging(cfg *config.Config, events repository.OutboxRepository) (*messaging, error) {
	if cfg.RabbitMQ.URL == "" {
		return nil, nil
	}

	publisher, err := rabbitmq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
	if err != nil {
		return nil, err
	}
	consumer, err := rabbitmq.NewConsumer(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.Queue, notify.BindingKey)
	if err != nil {
		publisher.Close()
		return nil, err
	}

	return &messaging{
		publisher: publisher,
		consumer:  consumer,
		relay: outbox.NewRelay(events, publisher, outbox.Config{
			PollInterval: cfg.Outbox.PollInterval,
			BatchSize:    cfg.Outbox.BatchSize,
			MaxAttempts:  cfg.Outbox.MaxAttempts,
		}),
		notifier: notify.NewNotifier(notify.NewMailer(cfg.SMTP), cfg.Notify.MaxRetries, cfg.Notify.Backoff),
	}, nil
}

func (m *messaging) Close() {
	m.consumer.Close()
	m.publisher.Close()
}
