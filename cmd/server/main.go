package main

import (
	"context"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/sadhef/Ri-carts-sub001/internal/config"
	"github.com/sadhef/Ri-carts-sub001/internal/infra/cache"
	dbmysql "github.com/sadhef/Ri-carts-sub001/internal/infra/mysql"
	"github.com/sadhef/Ri-carts-sub001/internal/infra/razorpay"
	"github.com/sadhef/Ri-carts-sub001/internal/logger"
	"github.com/sadhef/Ri-carts-sub001/internal/repository"
	mysqlrepo "github.com/sadhef/Ri-carts-sub001/internal/repository/mysql"
	"github.com/sadhef/Ri-carts-sub001/internal/services"
)

var Version = "dev"

var configPath string

func main() {
	root := &cobra.Command{
		Use:          "ri-carts",
		Short:        "Ri-carts order placement and payment settlement service",
		Version:      Version,
		SilenceUsage: true,
		RunE:         runServe,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (yaml, json or toml); RICARTS_* env vars override it")

	root.AddCommand(serveCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(relayCmd())
	root.AddCommand(ordersCmd())
	root.AddCommand(tokenCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger.Setup(cfg.Log.Level, cfg.Log.Format)
	return cfg, nil
}

// deps holds the connections shared by every command that touches storage.
type deps struct {
	cfg      *config.Config
	db       *gorm.DB
	redis    *redis.Client
	gateway  *razorpay.Client
	orders   repository.OrderRepository
	products repository.ProductRepository
	outbox   repository.OutboxRepository
}

func openDeps(ctx context.Context, cfg *config.Config) (*deps, error) {
	db, err := dbmysql.Open(cfg.MySQL)
	if err != nil {
		return nil, err
	}

	rdb, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unavailable, running without cache and refund lock")
		rdb = nil
	}

	if cfg.Razorpay.MockMode {
		log.Warn().Msg("razorpay mock mode enabled, no real payments will be taken")
	}

	return &deps{
		cfg:   cfg,
		db:    db,
		redis: rdb,
		gateway: razorpay.NewClient(razorpay.Config{
			KeyID:     cfg.Razorpay.KeyID,
			KeySecret: cfg.Razorpay.KeySecret,
			BaseURL:   cfg.Razorpay.BaseURL,
			Timeout:   cfg.Razorpay.Timeout,
			MockMode:  cfg.Razorpay.MockMode,
		}),
		orders:   mysqlrepo.NewOrderRepository(db),
		products: mysqlrepo.NewProductRepository(db),
		outbox:   mysqlrepo.NewOutboxRepository(db),
	}, nil
}

func (d *deps) Close() {
	if d.redis != nil {
		if err := d.redis.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close redis")
		}
	}
	if sqlDB, err := d.db.DB(); err == nil {
		sqlDB.Close()
	}
}

type serviceSet struct {
	orders      *services.OrderService
	payments    *services.PaymentService
	fulfillment *services.FulfillmentService
	refunds     *services.RefundService
	products    *services.ProductService
}

func (d *deps) services() serviceSet {
	s := serviceSet{
		orders:      services.NewOrderService(d.orders, d.products, d.cfg.Razorpay.Currency),
		payments:    services.NewPaymentService(d.orders, d.gateway),
		fulfillment: services.NewFulfillmentService(d.orders),
		refunds:     services.NewRefundService(d.orders, d.gateway),
		products:    services.NewProductService(d.products),
	}

	if d.redis != nil {
		productCache := cache.NewProductCache(d.redis, d.cfg.Redis.ProductTTL)
		s.orders.SetProductCache(productCache)
		s.products.SetProductCache(productCache)
		s.refunds.SetLocker(cache.NewLocker(d.redis))
	}
	return s
}
