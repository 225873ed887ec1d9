package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sadhef/Ri-carts-sub001/internal/domain"
	"github.com/sadhef/Ri-carts-sub001/internal/infra"
	"github.com/sadhef/Ri-carts-sub001/internal/mocks"
	"github.com/sadhef/Ri-carts-sub001/internal/repository"
)

func newPaymentService(orders *mocks.MockOrderRepository, gw *mocks.MockPaymentGateway) *PaymentService {
	svc := NewPaymentService(orders, gw)
	svc.now = func() time.Time { return TestPaidAt }
	return svc
}

func TestPaymentService_CreatePaymentIntent(t *testing.T) {
	tests := []struct {
		name          string
		caller        Caller
		order         func() *domain.Order
		setupMocks    func(*mocks.MockOrderRepository, *mocks.MockPaymentGateway)
		expectedError error
		check         func(*testing.T, *PaymentIntent)
	}{
		{
			name:   "creates remote order for the order total",
			caller: Caller{UserID: TestUserID},
			order:  func() *domain.Order { return CreateMockOrder(TestOrderID, TestUserID, "199.99", domain.StatusPending) },
			setupMocks: func(orders *mocks.MockOrderRepository, gw *mocks.MockPaymentGateway) {
				gw.On("CreateOrder", mock.Anything, dec("199.99"), TestCurrency, TestOrderNumber,
					map[string]string{"order_id": "1", "order_number": TestOrderNumber}).
					Return(&infra.RemoteOrder{ID: "order_abc", Amount: 19999, Currency: TestCurrency}, nil)
				orders.On("AttachGatewayOrder", mock.Anything, TestOrderID, "order_abc").Return(true, nil)
				gw.On("KeyID").Return("rzp_test_key")
			},
			check: func(t *testing.T, pi *PaymentIntent) {
				assert.Equal(t, "order_abc", pi.GatewayOrderID)
				assert.EqualValues(t, 19999, pi.Amount)
				assert.Equal(t, "rzp_test_key", pi.KeyID)
				assert.Equal(t, "Asha Rao", pi.Name)
				assert.Equal(t, "asha@example.com", pi.Email)
				assert.Equal(t, "9876543210", pi.Phone)
				assert.Equal(t, TestOrderNumber, pi.OrderNumber)
			},
		},
		{
			name:          "not the owner",
			caller:        Caller{UserID: TestOtherUserID},
			order:         func() *domain.Order { return CreateMockOrder(TestOrderID, TestUserID, "199.99", domain.StatusPending) },
			setupMocks:    func(*mocks.MockOrderRepository, *mocks.MockPaymentGateway) {},
			expectedError: domain.ErrForbidden,
		},
		{
			name:   "gateway order already attached",
			caller: Caller{UserID: TestUserID},
			order: func() *domain.Order {
				o := CreateMockOrder(TestOrderID, TestUserID, "199.99", domain.StatusPending)
				o.GatewayOrderID = strPtr("order_old")
				return o
			},
			setupMocks:    func(*mocks.MockOrderRepository, *mocks.MockPaymentGateway) {},
			expectedError: domain.ErrAlreadyPaid,
		},
		{
			name:          "order not pending",
			caller:        Caller{UserID: TestUserID},
			order:         func() *domain.Order { return CreateMockOrder(TestOrderID, TestUserID, "199.99", domain.StatusProcessing) },
			setupMocks:    func(*mocks.MockOrderRepository, *mocks.MockPaymentGateway) {},
			expectedError: domain.ErrAlreadyPaid,
		},
		{
			name:   "amount below provider minimum",
			caller: Caller{UserID: TestUserID},
			order:  func() *domain.Order { return CreateMockOrder(TestOrderID, TestUserID, "0.50", domain.StatusPending) },
			setupMocks: func(orders *mocks.MockOrderRepository, gw *mocks.MockPaymentGateway) {
				gw.On("CreateOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return(nil, domain.NewError(domain.CodeInvalidAmount, "amount 0.50 is below the minimum of 1.00"))
			},
			expectedError: domain.ErrInvalidAmount,
		},
		{
			name:   "provider failure",
			caller: Caller{UserID: TestUserID},
			order:  func() *domain.Order { return CreateMockOrder(TestOrderID, TestUserID, "199.99", domain.StatusPending) },
			setupMocks: func(orders *mocks.MockOrderRepository, gw *mocks.MockPaymentGateway) {
				gw.On("CreateOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return(nil, domain.WrapError(domain.CodePaymentProvider, errors.New("Authentication failed"), "failed to create payment order"))
			},
			expectedError: domain.ErrPaymentProvider,
		},
		{
			name:   "lost the race to attach",
			caller: Caller{UserID: TestUserID},
			order:  func() *domain.Order { return CreateMockOrder(TestOrderID, TestUserID, "199.99", domain.StatusPending) },
			setupMocks: func(orders *mocks.MockOrderRepository, gw *mocks.MockPaymentGateway) {
				gw.On("CreateOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return(&infra.RemoteOrder{ID: "order_abc", Amount: 19999}, nil)
				orders.On("AttachGatewayOrder", mock.Anything, TestOrderID, "order_abc").Return(false, nil)
			},
			expectedError: domain.ErrAlreadyPaid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders := new(mocks.MockOrderRepository)
			gw := new(mocks.MockPaymentGateway)
			orders.On("FindByID", mock.Anything, TestOrderID).Return(tt.order(), nil)
			tt.setupMocks(orders, gw)

			pi, err := newPaymentService(orders, gw).CreatePaymentIntent(context.Background(), tt.caller, TestOrderID)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, pi)
			} else {
				require.NoError(t, err)
				tt.check(t, pi)
			}
			orders.AssertExpectations(t)
			gw.AssertExpectations(t)
		})
	}
}

func awaitingPayment() *domain.Order {
	o := CreateMockOrder(TestOrderID, TestUserID, "199.99", domain.StatusPending)
	o.GatewayOrderID = strPtr("order_abc")
	return o
}

func verifyInput() VerifyPaymentInput {
	return VerifyPaymentInput{
		OrderID:          TestOrderID,
		GatewayOrderID:   "order_abc",
		GatewayPaymentID: "pay_xyz",
		Signature:        "good-signature",
	}
}

func TestPaymentService_VerifyPayment(t *testing.T) {
	tests := []struct {
		name          string
		input         func() VerifyPaymentInput
		order         func() *domain.Order
		setupMocks    func(*mocks.MockOrderRepository, *mocks.MockPaymentGateway)
		expectedError error
		check         func(*testing.T, *VerifyPaymentResult, *mocks.MockOrderRepository)
	}{
		{
			name:  "settles the order",
			input: verifyInput,
			order: awaitingPayment,
			setupMocks: func(orders *mocks.MockOrderRepository, gw *mocks.MockPaymentGateway) {
				gw.On("VerifySignature", "order_abc", "pay_xyz", "good-signature").Return(true)
				gw.On("FetchPayment", mock.Anything, "pay_xyz").Return(&infra.RemotePayment{ID: "pay_xyz", Amount: 19999, Method: "upi"}, nil)
				orders.On("Transition", mock.Anything, TestOrderID, domain.StatusPending, repository.OrderChanges{
					"status":             domain.StatusProcessing,
					"payment_status":     domain.PaymentPaid,
					"payment_method":     "upi",
					"gateway_payment_id": "pay_xyz",
					"paid_at":            TestPaidAt,
				}, mock.MatchedBy(func(e *domain.OutboxEvent) bool {
					return e.EventType == domain.EventOrderPaid && e.AggregateID == TestOrderID
				})).Return(true, nil)
			},
			check: func(t *testing.T, r *VerifyPaymentResult, _ *mocks.MockOrderRepository) {
				assert.True(t, r.Success)
				assert.Equal(t, domain.StatusProcessing, r.Status)
				assert.Equal(t, domain.PaymentPaid, r.PaymentStatus)
				assert.True(t, r.Amount.Equal(dec("199.99")))
				assert.Equal(t, TestOrderNumber, r.OrderNumber)
			},
		},
		{
			name:  "reports the amount the gateway captured",
			input: verifyInput,
			order: awaitingPayment,
			setupMocks: func(orders *mocks.MockOrderRepository, gw *mocks.MockPaymentGateway) {
				gw.On("VerifySignature", "order_abc", "pay_xyz", "good-signature").Return(true)
				gw.On("FetchPayment", mock.Anything, "pay_xyz").Return(&infra.RemotePayment{ID: "pay_xyz", Amount: 19000, Method: "card"}, nil)
				orders.On("Transition", mock.Anything, TestOrderID, domain.StatusPending, mock.Anything, mock.MatchedBy(func(e *domain.OutboxEvent) bool {
					var evt domain.OrderEvent
					return json.Unmarshal(e.Payload, &evt) == nil && evt.PaidAmount != nil && evt.PaidAmount.Equal(dec("190.00"))
				})).Return(true, nil)
			},
			check: func(t *testing.T, r *VerifyPaymentResult, _ *mocks.MockOrderRepository) {
				assert.True(t, r.Amount.Equal(dec("190.00")), "got %s", r.Amount)
			},
		},
		{
			name:  "bad signature leaves the order alone",
			input: verifyInput,
			order: awaitingPayment,
			setupMocks: func(orders *mocks.MockOrderRepository, gw *mocks.MockPaymentGateway) {
				gw.On("VerifySignature", "order_abc", "pay_xyz", "good-signature").Return(false)
			},
			expectedError: domain.ErrSignatureMismatch,
			check: func(t *testing.T, _ *VerifyPaymentResult, orders *mocks.MockOrderRepository) {
				orders.AssertNotCalled(t, "Transition", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			},
		},
		{
			name: "gateway order belongs to another order",
			input: func() VerifyPaymentInput {
				in := verifyInput()
				in.GatewayOrderID = "order_other"
				return in
			},
			order:         awaitingPayment,
			setupMocks:    func(*mocks.MockOrderRepository, *mocks.MockPaymentGateway) {},
			expectedError: domain.ErrInvalidInput,
		},
		{
			name:          "not the owner",
			input:         verifyInput,
			order:         func() *domain.Order { o := awaitingPayment(); o.UserID = TestOtherUserID; return o },
			setupMocks:    func(*mocks.MockOrderRepository, *mocks.MockPaymentGateway) {},
			expectedError: domain.ErrForbidden,
		},
		{
			name:  "replay of the same payment is idempotent",
			input: verifyInput,
			order: func() *domain.Order {
				o := awaitingPayment()
				o.Status = domain.StatusProcessing
				o.PaymentStatus = domain.PaymentPaid
				o.GatewayPaymentID = strPtr("pay_xyz")
				return o
			},
			setupMocks: func(orders *mocks.MockOrderRepository, gw *mocks.MockPaymentGateway) {
				gw.On("VerifySignature", "order_abc", "pay_xyz", "good-signature").Return(true)
			},
			check: func(t *testing.T, r *VerifyPaymentResult, orders *mocks.MockOrderRepository) {
				assert.True(t, r.Success)
				assert.Equal(t, domain.StatusProcessing, r.Status)
				orders.AssertNotCalled(t, "Transition", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			},
		},
		{
			name:  "fetch failure still settles with the order total",
			input: verifyInput,
			order: awaitingPayment,
			setupMocks: func(orders *mocks.MockOrderRepository, gw *mocks.MockPaymentGateway) {
				gw.On("VerifySignature", "order_abc", "pay_xyz", "good-signature").Return(true)
				gw.On("FetchPayment", mock.Anything, "pay_xyz").Return(nil, errors.New("timeout"))
				orders.On("Transition", mock.Anything, TestOrderID, domain.StatusPending, mock.MatchedBy(func(c repository.OrderChanges) bool {
					return c["payment_method"] == "razorpay" && c["status"] == domain.StatusProcessing
				}), mock.Anything).Return(true, nil)
			},
			check: func(t *testing.T, r *VerifyPaymentResult, _ *mocks.MockOrderRepository) {
				assert.True(t, r.Success)
			},
		},
		{
			name:  "cancelled order cannot be paid",
			input: verifyInput,
			order: func() *domain.Order { o := awaitingPayment(); o.Status = domain.StatusCancelled; return o },
			setupMocks: func(orders *mocks.MockOrderRepository, gw *mocks.MockPaymentGateway) {
				gw.On("VerifySignature", "order_abc", "pay_xyz", "good-signature").Return(true)
			},
			expectedError: domain.ErrInvalidTransition,
		},
		{
			name:  "concurrent callback settled the same payment first",
			input: verifyInput,
			order: awaitingPayment,
			setupMocks: func(orders *mocks.MockOrderRepository, gw *mocks.MockPaymentGateway) {
				gw.On("VerifySignature", "order_abc", "pay_xyz", "good-signature").Return(true)
				gw.On("FetchPayment", mock.Anything, "pay_xyz").Return(&infra.RemotePayment{ID: "pay_xyz", Amount: 19999}, nil)
				orders.On("Transition", mock.Anything, TestOrderID, domain.StatusPending, mock.Anything, mock.Anything).Return(false, nil)
				settled := awaitingPayment()
				settled.Status = domain.StatusProcessing
				settled.PaymentStatus = domain.PaymentPaid
				settled.GatewayPaymentID = strPtr("pay_xyz")
				orders.On("FindByID", mock.Anything, TestOrderID).Return(settled, nil).Once()
			},
			check: func(t *testing.T, r *VerifyPaymentResult, _ *mocks.MockOrderRepository) {
				assert.True(t, r.Success)
				assert.Equal(t, domain.PaymentPaid, r.PaymentStatus)
			},
		},
		{
			name: "missing signature",
			input: func() VerifyPaymentInput {
				in := verifyInput()
				in.Signature = ""
				return in
			},
			order:         awaitingPayment,
			setupMocks:    func(*mocks.MockOrderRepository, *mocks.MockPaymentGateway) {},
			expectedError: domain.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders := new(mocks.MockOrderRepository)
			gw := new(mocks.MockPaymentGateway)
			orders.On("FindByID", mock.Anything, TestOrderID).Return(tt.order(), nil).Once()
			tt.setupMocks(orders, gw)

			r, err := newPaymentService(orders, gw).VerifyPayment(context.Background(), Caller{UserID: TestUserID}, tt.input())

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, r)
			} else {
				require.NoError(t, err)
			}
			if tt.check != nil {
				tt.check(t, r, orders)
			}
			gw.AssertExpectations(t)
		})
	}
}
