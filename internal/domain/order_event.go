package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderCreated  = "order.created"
	EventOrderPaid     = "order.paid"
	EventOrderShipped  = "order.shipped"
	EventOrderRefunded = "order.refunded"
)

// OrderEvent is the payload carried for every order lifecycle event. Fields
// that do not apply to an event type are left empty.
type OrderEvent struct {
	OrderID        uint64           `json:"orderId"`
	OrderNumber    string           `json:"orderNumber"`
	Status         OrderStatus      `json:"status"`
	CustomerName   string           `json:"customerName"`
	CustomerEmail  string           `json:"customerEmail"`
	TotalAmount    decimal.Decimal  `json:"totalAmount"`
	Currency       string           `json:"currency"`
	ItemCount      int64            `json:"itemCount"`
	PaymentID      string           `json:"paymentId,omitempty"`
	PaymentMethod  string           `json:"paymentMethod,omitempty"`
	PaidAmount     *decimal.Decimal `json:"paidAmount,omitempty"`
	TrackingNumber string           `json:"trackingNumber,omitempty"`
	RefundID       string           `json:"refundId,omitempty"`
	RefundAmount   *decimal.Decimal `json:"refundAmount,omitempty"`
	OccurredAt     time.Time        `json:"occurredAt"`
}

func NewOrderEvent(o *Order, at time.Time) OrderEvent {
	addr := o.Address()
	var count int64
	for _, it := range o.Items {
		count += it.Quantity
	}
	evt := OrderEvent{
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		Status:        o.Status,
		CustomerName:  addr.FullName,
		CustomerEmail: addr.Email,
		TotalAmount:   o.TotalAmount,
		Currency:      o.Currency,
		ItemCount:     count,
		PaymentMethod: o.PaymentMethod,
		OccurredAt:    at,
	}
	if o.GatewayPaymentID != nil {
		evt.PaymentID = *o.GatewayPaymentID
	}
	if o.TrackingNumber != nil {
		evt.TrackingNumber = *o.TrackingNumber
	}
	if o.RefundID != nil {
		evt.RefundID = *o.RefundID
	}
	evt.RefundAmount = o.RefundAmount
	return evt
}
