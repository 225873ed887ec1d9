package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sadhef/Ri-carts-sub001/internal/auth"
	"github.com/sadhef/Ri-carts-sub001/internal/domain"
	dbmysql "github.com/sadhef/Ri-carts-sub001/internal/infra/mysql"
	"github.com/sadhef/Ri-carts-sub001/internal/infra/rabbitmq"
	"github.com/sadhef/Ri-carts-sub001/internal/outbox"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the schema and seed the order number sequence",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			d, err := openDeps(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer d.Close()

			if err := dbmysql.Migrate(d.db); err != nil {
				return err
			}
			log.Info().Str("database", cfg.MySQL.Database).Msg("migration complete")
			return nil
		},
	}
}

func relayCmd() *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Publish pending outbox events to RabbitMQ",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.RabbitMQ.URL == "" {
				return errors.New("rabbitmq.url is required to relay events")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			d, err := openDeps(ctx, cfg)
			if err != nil {
				return err
			}
			defer d.Close()

			publisher, err := rabbitmq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
			if err != nil {
				return err
			}
			defer publisher.Close()

			relay := outbox.NewRelay(d.outbox, publisher, outbox.Config{
				PollInterval: cfg.Outbox.PollInterval,
				BatchSize:    cfg.Outbox.BatchSize,
				MaxAttempts:  cfg.Outbox.MaxAttempts,
			})
			if !once {
				return relay.Run(ctx)
			}

			n, err := relay.Tick(ctx)
			if err != nil {
				return err
			}
			log.Info().Int("dispatched", n).Msg("outbox batch relayed")
			return nil
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "relay a single batch and exit")
	return cmd
}

func ordersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Administrative order operations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "ship <id> <tracking-number>",
		Short: "Mark a paid order shipped",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseOrderID(args[0])
			if err != nil {
				return err
			}
			return withServices(cmd, func(s serviceSet) (any, error) {
				return s.fulfillment.AssignTracking(cmd.Context(), id, args[1])
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "refund <id>",
		Short: "Refund an order in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseOrderID(args[0])
			if err != nil {
				return err
			}
			return withServices(cmd, func(s serviceSet) (any, error) {
				return s.refunds.Refund(cmd.Context(), id)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status <id> <DELIVERED|CANCELLED>",
		Short: "Set an order's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseOrderID(args[0])
			if err != nil {
				return err
			}
			return withServices(cmd, func(s serviceSet) (any, error) {
				return s.fulfillment.UpdateStatus(cmd.Context(), id, args[1])
			})
		},
	})

	return cmd
}

func parseOrderID(raw string) (uint64, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, domain.NewError(domain.CodeValidation, "invalid order id %q", raw)
	}
	return id, nil
}

// withServices opens storage, runs op and prints its result as JSON.
func withServices(cmd *cobra.Command, op func(serviceSet) (any, error)) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	d, err := openDeps(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer d.Close()

	res, err := op(d.services())
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func tokenCmd() *cobra.Command {
	var (
		userID string
		email  string
		admin  bool
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed session token for local testing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			tok, err := auth.IssueToken([]byte(cfg.JWT.Secret), auth.Session{UserID: userID, Email: email, Admin: admin}, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
			return err
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id to put in the token subject")
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().BoolVar(&admin, "admin", false, "grant the admin role")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
