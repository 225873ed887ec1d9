package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
	PaymentFailed   PaymentStatus = "failed"
)

// Order is one checkout transaction. Items and ShippingAddress are copied at
// order time so later catalog edits never alter a historical order.
type Order struct {
	ID              uint64                              `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderNumber     string                              `json:"orderNumber" gorm:"size:20;uniqueIndex;not null"`
	UserID          string                              `json:"userId" gorm:"size:64;index;not null"`
	Status          OrderStatus                         `json:"status" gorm:"type:varchar(20);index;not null"`
	PaymentStatus   PaymentStatus                       `json:"paymentStatus" gorm:"type:varchar(32);not null"`
	Items           []OrderItem                         `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	ShippingAddress datatypes.JSONType[ShippingAddress] `json:"shippingAddress"`
	PaymentMethod   string                              `json:"paymentMethod" gorm:"size:64;not null"`
	ShippingMethod  string                              `json:"shippingMethod" gorm:"size:64;not null"`
	Notes           string                              `json:"notes,omitempty" gorm:"type:text"`
	Currency        string                              `json:"currency" gorm:"size:8;not null"`
	Subtotal        decimal.Decimal                     `json:"subtotal" gorm:"type:decimal(12,2);not null"`
	ShippingCost    decimal.Decimal                     `json:"shippingCost" gorm:"type:decimal(12,2);not null"`
	TaxAmount       decimal.Decimal                     `json:"taxAmount" gorm:"type:decimal(12,2);not null"`
	TotalAmount     decimal.Decimal                     `json:"totalAmount" gorm:"type:decimal(12,2);not null"`
	SavingsAmount   decimal.Decimal                     `json:"savingsAmount" gorm:"type:decimal(12,2);not null"`

	TrackingNumber   *string          `json:"trackingNumber,omitempty" gorm:"size:128"`
	GatewayOrderID   *string          `json:"gatewayOrderId,omitempty" gorm:"size:64;index"`
	GatewayPaymentID *string          `json:"gatewayPaymentId,omitempty" gorm:"size:64;index"`
	RefundID         *string          `json:"refundId,omitempty" gorm:"size:64"`
	RefundAmount     *decimal.Decimal `json:"refundAmount,omitempty" gorm:"type:decimal(12,2)"`
	PaidAt           *time.Time       `json:"paidAt,omitempty"`
	ShippedAt        *time.Time       `json:"shippedAt,omitempty"`
	RefundedAt       *time.Time       `json:"refundedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

type OrderItem struct {
	ID           uint64          `json:"-" gorm:"primaryKey;autoIncrement"`
	OrderID      uint64          `json:"-" gorm:"index;not null"`
	ProductID    uint64          `json:"productId" gorm:"index;not null"`
	Name         string          `json:"name" gorm:"size:255;not null"`
	UnitPrice    decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	ComparePrice decimal.Decimal `json:"comparePrice" gorm:"type:decimal(12,2);not null"`
	Quantity     int64           `json:"quantity" gorm:"not null"`
	Image        string          `json:"image,omitempty" gorm:"size:512"`
	SKU          string          `json:"sku,omitempty" gorm:"size:64"`
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(i.Quantity))
}

type ShippingAddress struct {
	FullName   string `json:"fullName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

func (a ShippingAddress) Validate() error {
	required := []struct{ field, value string }{
		{"fullName", a.FullName},
		{"email", a.Email},
		{"line1", a.Line1},
		{"city", a.City},
		{"postalCode", a.PostalCode},
		{"country", a.Country},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return NewError(CodeValidation, "shipping address: %s is required", r.field)
		}
	}
	if !strings.Contains(a.Email, "@") {
		return NewError(CodeValidation, "shipping address: email %q is invalid", a.Email)
	}
	return nil
}

func FormatOrderNumber(n uint64) string {
	return fmt.Sprintf("ORD-%06d", n)
}

func (o *Order) Address() ShippingAddress {
	return o.ShippingAddress.Data()
}

// Transition moves the order to next, or returns an invalid_transition error
// leaving the order untouched.
func (o *Order) Transition(next OrderStatus) error {
	if !o.Status.CanTransitionTo(next) {
		return NewError(CodeInvalidTransition, "order %s cannot move from %s to %s", o.OrderNumber, o.Status, next)
	}
	o.Status = next
	return nil
}
