package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID           uint64          `json:"id" gorm:"primaryKey;autoIncrement"`
	Name         string          `json:"name" gorm:"size:255;not null"`
	SKU          string          `json:"sku" gorm:"size:64;index"`
	Price        decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	ComparePrice decimal.Decimal `json:"comparePrice" gorm:"type:decimal(12,2);not null"`
	Image        string          `json:"image,omitempty" gorm:"size:512"`
	Stock        int64           `json:"stock" gorm:"not null;default:0"`
	CreatedAt    time.Time       `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt    time.Time       `json:"updatedAt" gorm:"autoUpdateTime"`
}

// Sequence is a named monotonic counter.
type Sequence struct {
	Name  string `gorm:"primaryKey;size:64"`
	Value uint64 `gorm:"not null"`
}

const OrderNumberSequence = "order_number"
