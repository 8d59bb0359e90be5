package razorpay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	rzp "github.com/razorpay/razorpay-go"
	"github.com/razorpay/razorpay-go/utils"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// SignatureHeader carries the webhook HMAC.
const SignatureHeader = "X-Razorpay-Signature"

// Note keys written on every Razorpay order.
const (
	NoteAppID    = "appId"
	NoteUserID   = "userId"
	NoteOrderIDs = "orderIds"
)

type orderAPI interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

type paymentAPI interface {
	Refund(paymentID string, amount int, data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// Client wraps the Razorpay SDK resources used by checkout and refunds.
type Client struct {
	keyID         string
	webhookSecret string
	orders        orderAPI
	payments      paymentAPI
}

// NewClient builds a Razorpay client from config.
func NewClient(ctx context.Context, cfg config.RazorpayConfig, logg *logger.Logger) (*Client, error) {
	if !cfg.Enabled() {
		return nil, errors.New("razorpay key id and secret are required")
	}
	sdk := rzp.NewClient(strings.TrimSpace(cfg.KeyID), strings.TrimSpace(cfg.KeySecret))
	if logg != nil {
		logg.Info(ctx, "razorpay client initialized")
	}
	return &Client{
		keyID:         strings.TrimSpace(cfg.KeyID),
		webhookSecret: cfg.WebhookSecret,
		orders:        sdk.Order,
		payments:      sdk.Payment,
	}, nil
}

// KeyID is the public key the client widget needs.
func (c *Client) KeyID() string {
	if c == nil {
		return ""
	}
	return c.keyID
}

// WebhookSecret returns the shared secret for webhook verification.
func (c *Client) WebhookSecret() string {
	if c == nil {
		return ""
	}
	return c.webhookSecret
}

// OrderInput describes a Razorpay order covering a whole checkout.
type OrderInput struct {
	AmountMinor int64
	Currency    string
	Receipt     string
	Notes       map[string]string
}

// Order is the subset of the created order the caller needs.
type Order struct {
	ID          string
	AmountMinor int64
	Currency    string
}

// CreateOrder creates a Razorpay order. The SDK is synchronous; ctx only gates
// the call.
func (c *Client) CreateOrder(ctx context.Context, input OrderInput) (*Order, error) {
	if c == nil || c.orders == nil {
		return nil, errors.New("razorpay client not initialized")
	}
	if input.AmountMinor <= 0 {
		return nil, errors.New("razorpay order amount must be positive")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	notes := map[string]interface{}{}
	for k, v := range input.Notes {
		notes[k] = v
	}
	resp, err := c.orders.Create(map[string]interface{}{
		"amount":   input.AmountMinor,
		"currency": strings.ToUpper(input.Currency),
		"receipt":  input.Receipt,
		"notes":    notes,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("create razorpay order: %w", err)
	}
	id, _ := resp["id"].(string)
	if id == "" {
		return nil, errors.New("razorpay order response missing id")
	}
	return &Order{
		ID:          id,
		AmountMinor: input.AmountMinor,
		Currency:    strings.ToUpper(input.Currency),
	}, nil
}

// RefundPayment refunds amountMinor of a captured payment and returns the
// refund id.
func (c *Client) RefundPayment(ctx context.Context, paymentID string, amountMinor int64) (string, error) {
	if c == nil || c.payments == nil {
		return "", errors.New("razorpay client not initialized")
	}
	if strings.TrimSpace(paymentID) == "" {
		return "", errors.New("razorpay payment id is required")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	resp, err := c.payments.Refund(paymentID, int(amountMinor), nil, nil)
	if err != nil {
		return "", fmt.Errorf("refund razorpay payment: %w", err)
	}
	id, _ := resp["id"].(string)
	return id, nil
}

// VerifySignature checks the webhook HMAC-SHA256 over the raw body.
func VerifySignature(body []byte, signature, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}
	return utils.VerifyWebhookSignature(string(body), signature, secret)
}

// Event types the settlement listener acts on.
const (
	EventPaymentCaptured = "payment.captured"
	EventPaymentFailed   = "payment.failed"
	EventOrderPaid       = "order.paid"
)

// WebhookEvent is the envelope of a Razorpay webhook delivery.
type WebhookEvent struct {
	Event     string         `json:"event"`
	AccountID string         `json:"account_id"`
	CreatedAt int64          `json:"created_at"`
	Payload   WebhookPayload `json:"payload"`
}

// WebhookPayload holds the entities referenced by the event.
type WebhookPayload struct {
	Payment *struct {
		Entity PaymentEntity `json:"entity"`
	} `json:"payment,omitempty"`
}

// PaymentEntity is the payment object inside a webhook.
type PaymentEntity struct {
	ID               string `json:"id"`
	OrderID          string `json:"order_id"`
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
	Status           string `json:"status"`
	Notes            Notes  `json:"notes"`
	ErrorCode        string `json:"error_code,omitempty"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// ParseWebhook decodes a verified webhook body.
func ParseWebhook(body []byte) (*WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("decode razorpay webhook: %w", err)
	}
	if event.Event == "" {
		return nil, errors.New("razorpay webhook missing event")
	}
	return &event, nil
}

// Payment returns the payment entity, if present.
func (e *WebhookEvent) Payment() *PaymentEntity {
	if e == nil || e.Payload.Payment == nil {
		return nil
	}
	return &e.Payload.Payment.Entity
}

// Notes is the key/value map Razorpay attaches to orders and payments. Empty
// notes arrive as a JSON array.
type Notes map[string]string

// UnmarshalJSON accepts both an object and the empty array form.
func (n *Notes) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || strings.HasPrefix(trimmed, "[") {
		*n = Notes{}
		return nil
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Notes, len(raw))
	for k, v := range raw {
		out[k] = fmt.Sprint(v)
	}
	*n = out
	return nil
}
