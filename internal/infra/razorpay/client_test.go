package razorpay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadhef/Ri-carts-sub001/internal/domain"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{KeyID: "rzp_test_key", KeySecret: "secret", BaseURL: srv.URL, Timeout: time.Second})
}

func TestCreateOrder_SendsMinorUnits(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/orders", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "rzp_test_key", user)
		assert.Equal(t, "secret", pass)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.EqualValues(t, 19999, body["amount"])
		assert.Equal(t, "INR", body["currency"])
		assert.Equal(t, "ORD-000001", body["receipt"])

		_ = json.NewEncoder(w).Encode(map[string]any{"id": "order_abc", "amount": 19999, "currency": "INR", "status": "created"})
	})

	got, err := c.CreateOrder(context.Background(), decimal.RequireFromString("199.99"), "INR", "ORD-000001", map[string]string{"order_id": "1"})
	require.NoError(t, err)
	assert.Equal(t, "order_abc", got.ID)
	assert.EqualValues(t, 19999, got.Amount)
}

func TestCreateOrder_BelowMinimumNeverCallsProvider(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { calls.Add(1) })

	_, err := c.CreateOrder(context.Background(), decimal.RequireFromString("0.99"), "INR", "r", nil)
	assert.True(t, errors.Is(err, domain.ErrInvalidAmount))
	assert.Zero(t, calls.Load())
}

func TestCreateOrder_ProviderErrorCarriesDescription(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"Currency is not supported"}}`))
	})

	_, err := c.CreateOrder(context.Background(), decimal.NewFromInt(500), "XYZ", "r", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrPaymentProvider))
	assert.Contains(t, err.Error(), "Currency is not supported")
}

func TestCreateOrder_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(srv.Close)
	c := NewClient(Config{KeyID: "k", KeySecret: "s", BaseURL: srv.URL, Timeout: 20 * time.Millisecond})

	_, err := c.CreateOrder(context.Background(), decimal.NewFromInt(500), "INR", "r", nil)
	assert.True(t, errors.Is(err, domain.ErrPaymentProvider))
}

func TestVerifySignature(t *testing.T) {
	c := NewClient(Config{KeyID: "k", KeySecret: "secret"})
	sig := c.signature("order_abc", "pay_xyz")

	assert.True(t, c.VerifySignature("order_abc", "pay_xyz", sig))
	assert.False(t, c.VerifySignature("order_abc", "pay_other", sig))
	assert.False(t, c.VerifySignature("order_abc", "pay_xyz", "not-hex"))
	assert.False(t, c.VerifySignature("order_abc", "pay_xyz", ""))

	other := NewClient(Config{KeyID: "k", KeySecret: "different"})
	assert.False(t, other.VerifySignature("order_abc", "pay_xyz", sig))
}

func TestVerifySignature_RejectsEverySingleCharacterChange(t *testing.T) {
	c := NewClient(Config{KeyID: "k", KeySecret: "secret"})
	sig := c.signature("order_abc", "pay_xyz")
	require.True(t, c.VerifySignature("order_abc", "pay_xyz", sig))

	for i := range sig {
		for _, r := range "0123456789abcdefABCDEF" {
			if byte(r) == sig[i] {
				continue
			}
			mutated := sig[:i] + string(r) + sig[i+1:]
			assert.False(t, c.VerifySignature("order_abc", "pay_xyz", mutated), "position %d: %q", i, mutated)
		}
	}

	assert.False(t, c.VerifySignature("order_abc", "pay_xyz", strings.ToUpper(sig)))
	assert.False(t, c.VerifySignature("order_abc", "pay_xyz", sig[:len(sig)-1]))
	assert.False(t, c.VerifySignature("order_abc", "pay_xyz", sig+"0"))
}

func TestFetchPayment(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payments/pay_xyz", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "pay_xyz", "order_id": "order_abc", "amount": 19999, "currency": "INR", "method": "upi", "status": "captured",
		})
	})

	p, err := c.FetchPayment(context.Background(), "pay_xyz")
	require.NoError(t, err)
	assert.Equal(t, "upi", p.Method)
	assert.Equal(t, "order_abc", p.OrderID)
}

func TestCreateRefund(t *testing.T) {
	t.Run("full refund omits amount", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/payments/pay_xyz/refund", r.URL.Path)
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			_, hasAmount := body["amount"]
			assert.False(t, hasAmount)
			_ = json.NewEncoder(w).Encode(map[string]any{"id": "rfnd_1", "payment_id": "pay_xyz", "amount": 19999, "status": "processed"})
		})

		r, err := c.CreateRefund(context.Background(), "pay_xyz", nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "rfnd_1", r.ID)
	})

	t.Run("provider failure", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"description":"The payment has been fully refunded already"}}`))
		})

		_, err := c.CreateRefund(context.Background(), "pay_xyz", nil, nil)
		assert.True(t, errors.Is(err, domain.ErrRefundProvider))
		assert.Contains(t, err.Error(), "fully refunded")
	})
}

func TestMockMode(t *testing.T) {
	c := NewClient(Config{KeyID: "k", KeySecret: "s", MockMode: true})
	ctx := context.Background()

	o, err := c.CreateOrder(ctx, decimal.NewFromInt(250), "INR", "ORD-000009", nil)
	require.NoError(t, err)
	assert.Equal(t, "order_mock_ORD-000009", o.ID)
	assert.EqualValues(t, 25000, o.Amount)

	r, err := c.CreateRefund(ctx, "pay_1", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "rfnd_mock_pay_1", r.ID)
}
