package mysql

import (
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sadhef/Ri-carts-sub001/internal/domain"
	dbmysql "github.com/sadhef/Ri-carts-sub001/internal/infra/mysql"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, dbmysql.Migrate(db))
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price string, stock int64) domain.Product {
	t.Helper()

	p := domain.Product{
		Name:         name,
		SKU:          strings.ToUpper(name),
		Price:        decimal.RequireFromString(price),
		ComparePrice: decimal.RequireFromString(price),
		Stock:        stock,
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func newOrder(userID string, lines ...domain.OrderItem) *domain.Order {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.LineTotal())
	}
	return &domain.Order{
		UserID:        userID,
		Status:        domain.StatusPending,
		PaymentStatus: domain.PaymentPending,
		Items:         lines,
		ShippingAddress: datatypes.NewJSONType(domain.ShippingAddress{
			FullName: "Asha Rao", Email: "asha@example.com", Phone: "9999999999",
			Line1: "12 MG Road", City: "Bengaluru", State: "KA", PostalCode: "560001", Country: "IN",
		}),
		PaymentMethod:  "razorpay",
		ShippingMethod: "standard",
		Currency:       "INR",
		Subtotal:       subtotal,
		ShippingCost:   decimal.Zero,
		TaxAmount:      decimal.Zero,
		TotalAmount:    subtotal,
		SavingsAmount:  decimal.Zero,
	}
}

func lineFor(p domain.Product, qty int64) domain.OrderItem {
	return domain.OrderItem{
		ProductID:    p.ID,
		Name:         p.Name,
		UnitPrice:    p.Price,
		ComparePrice: p.ComparePrice,
		Quantity:     qty,
		SKU:          p.SKU,
	}
}
