package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from OrderStatus
		to   OrderStatus
		want bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusShipped, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusRefunded, true},
		{StatusPending, StatusDelivered, false},
		{StatusProcessing, StatusShipped, true},
		{StatusProcessing, StatusCancelled, true},
		{StatusProcessing, StatusPending, false},
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusCancelled, false},
		{StatusDelivered, StatusPending, false},
		{StatusDelivered, StatusRefunded, true},
		{StatusCancelled, StatusProcessing, false},
		{StatusCancelled, StatusRefunded, true},
		{StatusRefunded, StatusRefunded, false},
		{StatusRefunded, StatusPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestOrder_Transition(t *testing.T) {
	o := &Order{OrderNumber: "ORD-000001", Status: StatusDelivered}

	err := o.Transition(StatusPending)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.Equal(t, StatusDelivered, o.Status)

	require.NoError(t, o.Transition(StatusRefunded))
	assert.Equal(t, StatusRefunded, o.Status)
}

func TestParseOrderStatus(t *testing.T) {
	s, err := ParseOrderStatus("SHIPPED")
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, s)

	s, err = ParseOrderStatus(" delivered ")
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, s)

	_, err = ParseOrderStatus("LOST")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestFormatOrderNumber(t *testing.T) {
	assert.Equal(t, "ORD-000007", FormatOrderNumber(7))
	assert.Equal(t, "ORD-000001", FormatOrderNumber(1))
	assert.Equal(t, "ORD-123456", FormatOrderNumber(123456))
	assert.Equal(t, "ORD-1234567", FormatOrderNumber(1234567))
}

func TestError_IsMatchesByCode(t *testing.T) {
	detailed := NewError(CodeInsufficientStock, "insufficient stock for %q: available %d", "Mug", 1)
	wrapped := WrapError(CodePaymentProvider, errors.New("BAD_REQUEST_ERROR"), "create remote order")

	assert.ErrorIs(t, detailed, ErrInsufficientStock)
	assert.NotErrorIs(t, detailed, ErrProductNotFound)
	assert.ErrorIs(t, wrapped, ErrPaymentProvider)
	assert.Contains(t, wrapped.Error(), "BAD_REQUEST_ERROR")
	assert.Equal(t, CodePaymentProvider, CodeOf(wrapped))
	assert.Equal(t, ErrorCode(""), CodeOf(errors.New("plain")))
}

func TestShippingAddress_Validate(t *testing.T) {
	addr := ShippingAddress{
		FullName:   "Asha Rao",
		Email:      "asha@example.com",
		Line1:      "12 MG Road",
		City:       "Bengaluru",
		PostalCode: "560001",
		Country:    "IN",
	}
	require.NoError(t, addr.Validate())

	missing := addr
	missing.City = "  "
	assert.ErrorIs(t, missing.Validate(), ErrInvalidInput)

	badEmail := addr
	badEmail.Email = "asha.example.com"
	assert.ErrorIs(t, badEmail.Validate(), ErrInvalidInput)
}
