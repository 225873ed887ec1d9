package services

import "github.com/sadhef/Ri-carts-sub001/internal/domain"

// Caller identifies who is acting on an order.
type Caller struct {
	UserID string
	Admin  bool
}

func (c Caller) owns(o *domain.Order) bool {
	return c.UserID != "" && o.UserID == c.UserID
}
