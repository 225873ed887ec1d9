package razorpay

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sadhef/Ri-carts-sub001/internal/domain"
	"github.com/sadhef/Ri-carts-sub001/internal/infra"
)

// MinAmount is the smallest order the provider accepts, in minor units.
const MinAmount = 100

type Config struct {
	KeyID     string
	KeySecret string
	BaseURL   string
	Timeout   time.Duration
	MockMode  bool
}

type Client struct {
	keyID      string
	keySecret  string
	baseURL    string
	mock       bool
	httpClient *http.Client
}

var _ infra.PaymentGateway = (*Client)(nil)

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		keyID:      cfg.KeyID,
		keySecret:  cfg.KeySecret,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		mock:       cfg.MockMode,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) KeyID() string { return c.keyID }

type apiError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

func (c *Client) CreateOrder(ctx context.Context, amount decimal.Decimal, currency, receipt string, notes map[string]string) (*infra.RemoteOrder, error) {
	minor := domain.ToMinorUnits(amount)
	if minor < MinAmount {
		return nil, domain.NewError(domain.CodeInvalidAmount, "amount %s is below the minimum of %s", amount.StringFixed(2), domain.FromMinorUnits(MinAmount).StringFixed(2))
	}

	if c.mock {
		return &infra.RemoteOrder{
			ID:       "order_mock_" + receipt,
			Amount:   minor,
			Currency: currency,
			Receipt:  receipt,
			Status:   "created",
		}, nil
	}

	body := map[string]any{
		"amount":   minor,
		"currency": currency,
		"receipt":  receipt,
		"notes":    notes,
	}
	var out infra.RemoteOrder
	if err := c.do(ctx, http.MethodPost, "/orders", body, &out); err != nil {
		return nil, domain.WrapError(domain.CodePaymentProvider, err, "failed to create payment order")
	}
	return &out, nil
}

// VerifySignature checks the checkout callback signature, an HMAC-SHA256 of
// "orderID|paymentID" keyed with the API secret. The hex string must match
// exactly, case included.
func (c *Client) VerifySignature(orderID, paymentID, signature string) bool {
	if orderID == "" || paymentID == "" || signature == "" {
		return false
	}
	return hmac.Equal([]byte(signature), []byte(c.signature(orderID, paymentID)))
}

func (c *Client) sign(payload string) []byte {
	mac := hmac.New(sha256.New, []byte(c.keySecret))
	mac.Write([]byte(payload))
	return mac.Sum(nil)
}

// signature is the lower-case hex form the provider sends back on checkout.
func (c *Client) signature(orderID, paymentID string) string {
	return hex.EncodeToString(c.sign(orderID + "|" + paymentID))
}

func (c *Client) FetchPayment(ctx context.Context, paymentID string) (*infra.RemotePayment, error) {
	if c.mock {
		return &infra.RemotePayment{ID: paymentID, Method: "mock", Status: "captured"}, nil
	}

	var out infra.RemotePayment
	if err := c.do(ctx, http.MethodGet, "/payments/"+paymentID, nil, &out); err != nil {
		return nil, domain.WrapError(domain.CodePaymentProvider, err, "failed to fetch payment %s", paymentID)
	}
	return &out, nil
}

func (c *Client) CreateRefund(ctx context.Context, paymentID string, amountMinor *int64, notes map[string]string) (*infra.RemoteRefund, error) {
	if amountMinor != nil && *amountMinor <= 0 {
		return nil, domain.NewError(domain.CodeInvalidAmount, "refund amount must be positive")
	}

	if c.mock {
		out := &infra.RemoteRefund{ID: "rfnd_mock_" + paymentID, PaymentID: paymentID, Status: "processed"}
		if amountMinor != nil {
			out.Amount = *amountMinor
		}
		return out, nil
	}

	body := map[string]any{"notes": notes}
	if amountMinor != nil {
		body["amount"] = *amountMinor
	}
	var out infra.RemoteRefund
	if err := c.do(ctx, http.MethodPost, "/payments/"+paymentID+"/refund", body, &out); err != nil {
		return nil, domain.WrapError(domain.CodeRefundProvider, err, "failed to refund payment %s", paymentID)
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var reader io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apiError
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Description != "" {
			return errors.New(apiErr.Error.Description)
		}
		return fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
