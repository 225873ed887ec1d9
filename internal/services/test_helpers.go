package services

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/sadhef/Ri-carts-sub001/internal/domain"
)

const (
	TestUserID      = "user-1"
	TestOtherUserID = "user-2"
	TestOrderID     = uint64(1)
	TestOrderNumber = "ORD-000001"
	TestCurrency    = "INR"
)

var TestPaidAt = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func CreateMockAddress() domain.ShippingAddress {
	return domain.ShippingAddress{
		FullName:   "Asha Rao",
		Email:      "asha@example.com",
		Phone:      "9876543210",
		Line1:      "12 MG Road",
		City:       "Bengaluru",
		State:      "KA",
		PostalCode: "560001",
		Country:    "IN",
	}
}

func CreateMockProduct(id uint64, name, price, compare string, stock int64) domain.Product {
	return domain.Product{
		ID:           id,
		Name:         name,
		SKU:          "SKU-" + name,
		Price:        decimal.RequireFromString(price),
		ComparePrice: decimal.RequireFromString(compare),
		Stock:        stock,
	}
}

func CreateMockOrder(id uint64, userID string, total string, status domain.OrderStatus) *domain.Order {
	amount := decimal.RequireFromString(total)
	return &domain.Order{
		ID:              id,
		OrderNumber:     domain.FormatOrderNumber(id),
		UserID:          userID,
		Status:          status,
		PaymentStatus:   domain.PaymentPending,
		ShippingAddress: datatypes.NewJSONType(CreateMockAddress()),
		PaymentMethod:   "razorpay",
		ShippingMethod:  "standard",
		Currency:        TestCurrency,
		Subtotal:        amount,
		TotalAmount:     amount,
		Items: []domain.OrderItem{
			{ProductID: 1, Name: "tee", UnitPrice: amount, ComparePrice: amount, Quantity: 1},
		},
		CreatedAt: time.Now(),
	}
}

func strPtr(s string) *string { return &s }
