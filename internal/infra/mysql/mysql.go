package mysql

import (
	"fmt"
	"net"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"github.com/sadhef/Ri-carts-sub001/internal/config"
	"github.com/sadhef/Ri-carts-sub001/internal/domain"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

func DSN(cfg config.MySQLConfig) string {
	c := mysqldriver.NewConfig()
	c.User = cfg.User
	c.Passwd = cfg.Password
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(cfg.Host, cfg.Port)
	c.DBName = cfg.Database
	c.ParseTime = true
	c.Loc = time.UTC
	c.Params = map[string]string{"charset": "utf8mb4"}
	return c.FormatDSN()
}

func Open(cfg config.MySQLConfig) (*gorm.DB, error) {
	db, err := gorm.Open(gormmysql.Open(DSN(cfg)), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			SingularTable: false,
		},
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	return db, nil
}

// Migrate creates or updates the schema and seeds the order number sequence
// so numbering continues after existing orders.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&domain.Product{},
		&domain.Order{},
		&domain.OrderItem{},
		&domain.Sequence{},
		&domain.OutboxEvent{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.Order{}).Count(&count).Error; err != nil {
			return err
		}

		var seq domain.Sequence
		res := tx.Where("name = ?", domain.OrderNumberSequence).Limit(1).Find(&seq)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			seq = domain.Sequence{Name: domain.OrderNumberSequence, Value: uint64(count)}
			if err := tx.Create(&seq).Error; err != nil {
				return err
			}
			log.Info().Uint64("value", seq.Value).Msg("seeded order number sequence")
			return nil
		}
		if seq.Value < uint64(count) {
			return tx.Model(&domain.Sequence{}).
				Where("name = ?", domain.OrderNumberSequence).
				Update("value", count).Error
		}
		return nil
	})
}
