package http

import (
	"github.com/shopspring/decimal"

	"github.com/sadhef/Ri-carts-sub001/internal/domain"
	"github.com/sadhef/Ri-carts-sub001/internal/services"
)

type OrderItemRequest struct {
	ProductID    uint64          `json:"productId" binding:"required"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	ComparePrice decimal.Decimal `json:"comparePrice"`
	Quantity     int64           `json:"quantity" binding:"required,min=1"`
	Image        string          `json:"image"`
	SKU          string          `json:"sku"`
}

type CreateOrderRequest struct {
	Items           []OrderItemRequest     `json:"items" binding:"required,min=1,dive"`
	ShippingAddress domain.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod" binding:"required"`
	ShippingMethod  string                 `json:"shippingMethod" binding:"required"`
	Notes           string                 `json:"notes"`
	Subtotal        decimal.Decimal        `json:"subtotal"`
	ShippingCost    decimal.Decimal        `json:"shippingCost"`
	TaxAmount       decimal.Decimal        `json:"taxAmount"`
	TotalAmount     decimal.Decimal        `json:"totalAmount"`
	SavingsAmount   decimal.Decimal        `json:"savingsAmount"`
}

func (r CreateOrderRequest) toInput(userID string) services.CreateOrderInput {
	items := make([]services.OrderItemInput, len(r.Items))
	for i, it := range r.Items {
		items[i] = services.OrderItemInput{
			ProductID:    it.ProductID,
			Name:         it.Name,
			Price:        it.Price,
			ComparePrice: it.ComparePrice,
			Quantity:     it.Quantity,
			Image:        it.Image,
			SKU:          it.SKU,
		}
	}
	return services.CreateOrderInput{
		UserID:          userID,
		Items:           items,
		ShippingAddress: r.ShippingAddress,
		PaymentMethod:   r.PaymentMethod,
		ShippingMethod:  r.ShippingMethod,
		Notes:           r.Notes,
		Subtotal:        r.Subtotal,
		ShippingCost:    r.ShippingCost,
		TaxAmount:       r.TaxAmount,
		TotalAmount:     r.TotalAmount,
		SavingsAmount:   r.SavingsAmount,
	}
}

type CreateOrderResponse struct {
	ID          uint64             `json:"id"`
	OrderNumber string             `json:"orderNumber"`
	Status      domain.OrderStatus `json:"status"`
	TotalAmount decimal.Decimal    `json:"totalAmount"`
}

type PaymentIntentResponse struct {
	GatewayOrderID string `json:"gatewayOrderId"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	KeyID          string `json:"keyId"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	OrderNumber    string `json:"orderNumber"`
}

type VerifyPaymentRequest struct {
	OrderID          uint64 `json:"orderId" binding:"required"`
	GatewayOrderID   string `json:"gatewayOrderId" binding:"required"`
	GatewayPaymentID string `json:"gatewayPaymentId" binding:"required"`
	Signature        string `json:"signature" binding:"required"`
}

type VerifyPaymentResponse struct {
	Success       bool                 `json:"success"`
	Amount        decimal.Decimal      `json:"amount"`
	Status        domain.OrderStatus   `json:"status"`
	PaymentStatus domain.PaymentStatus `json:"paymentStatus"`
	OrderNumber   string               `json:"orderNumber"`
}

type AssignTrackingRequest struct {
	TrackingNumber string `json:"trackingNumber" binding:"required"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type RefundResponse struct {
	OrderID     uint64             `json:"orderId"`
	OrderNumber string             `json:"orderNumber"`
	RefundID    string             `json:"refundId,omitempty"`
	Amount      decimal.Decimal    `json:"amount"`
	Status      domain.OrderStatus `json:"status"`
}

type CreateProductRequest struct {
	Name         string          `json:"name" binding:"required"`
	SKU          string          `json:"sku"`
	Price        decimal.Decimal `json:"price"`
	ComparePrice decimal.Decimal `json:"comparePrice"`
	Image        string          `json:"image"`
	Stock        int64           `json:"stock" binding:"min=0"`
}

type AdjustStockRequest struct {
	Delta int64 `json:"delta" binding:"required"`
}
