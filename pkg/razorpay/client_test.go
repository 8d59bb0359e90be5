package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/config"
)

type stubOrders struct {
	last map[string]interface{}
	resp map[string]interface{}
	err  error
}

func (s *stubOrders) Create(data map[string]interface{}, _ map[string]string) (map[string]interface{}, error) {
	s.last = data
	return s.resp, s.err
}

type stubPayments struct {
	paymentID string
	amount    int
}

func (s *stubPayments) Refund(paymentID string, amount int, _ map[string]interface{}, _ map[string]string) (map[string]interface{}, error) {
	s.paymentID = paymentID
	s.amount = amount
	return map[string]interface{}{"id": "rfnd_1"}, nil
}

func sign(body, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestCreateOrderSendsNotes(t *testing.T) {
	t.Parallel()
	orders := &stubOrders{resp: map[string]interface{}{"id": "order_Abc"}}
	c := &Client{orders: orders}

	got, err := c.CreateOrder(context.Background(), OrderInput{
		AmountMinor: 25000,
		Currency:    "inr",
		Receipt:     "chk_1",
		Notes:       map[string]string{NoteOrderIDs: "a,b", NoteAppID: "storefront"},
	})
	require.NoError(t, err)
	require.Equal(t, "order_Abc", got.ID)
	require.Equal(t, "INR", orders.last["currency"])
	require.EqualValues(t, 25000, orders.last["amount"])
	require.Equal(t, "a,b", orders.last["notes"].(map[string]interface{})[NoteOrderIDs])
}

func TestCreateOrderErrors(t *testing.T) {
	t.Parallel()
	c := &Client{orders: &stubOrders{err: errors.New("BAD_REQUEST_ERROR")}}
	_, err := c.CreateOrder(context.Background(), OrderInput{AmountMinor: 100, Currency: "INR"})
	require.Error(t, err)

	_, err = c.CreateOrder(context.Background(), OrderInput{AmountMinor: 0})
	require.Error(t, err)

	c = &Client{orders: &stubOrders{resp: map[string]interface{}{}}}
	_, err = c.CreateOrder(context.Background(), OrderInput{AmountMinor: 100})
	require.ErrorContains(t, err, "missing id")
}

func TestRefundPayment(t *testing.T) {
	t.Parallel()
	payments := &stubPayments{}
	c := &Client{payments: payments}

	id, err := c.RefundPayment(context.Background(), "pay_1", 5000)
	require.NoError(t, err)
	require.Equal(t, "rfnd_1", id)
	require.Equal(t, "pay_1", payments.paymentID)
	require.Equal(t, 5000, payments.amount)

	_, err = c.RefundPayment(context.Background(), "", 1)
	require.Error(t, err)
}

func TestVerifySignatureAndParse(t *testing.T) {
	t.Parallel()
	body := `{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1","order_id":"order_1","amount":25000,"notes":{"appId":"storefront"}}}}}`

	require.True(t, VerifySignature([]byte(body), sign(body, "whsec"), "whsec"))
	require.False(t, VerifySignature([]byte(body), sign(body, "other"), "whsec"))
	require.False(t, VerifySignature([]byte(body), "", "whsec"))

	event, err := ParseWebhook([]byte(body))
	require.NoError(t, err)
	require.Equal(t, EventPaymentCaptured, event.Event)
	require.Equal(t, "order_1", event.Payment().OrderID)
	require.Equal(t, "storefront", event.Payment().Notes[NoteAppID])

	failed, err := ParseWebhook([]byte(`{"event":"payment.failed","payload":{"payment":{"entity":{"id":"pay_2","notes":[]}}}}`))
	require.NoError(t, err)
	require.Empty(t, failed.Payment().Notes)

	_, err = ParseWebhook([]byte(`{}`))
	require.Error(t, err)
}

func TestNewClientRequiresCredentials(t *testing.T) {
	t.Parallel()
	_, err := NewClient(context.Background(), config.RazorpayConfig{}, nil)
	require.Error(t, err)

	c, err := NewClient(context.Background(), config.RazorpayConfig{KeyID: "rzp_test_1", KeySecret: "s", WebhookSecret: "w"}, nil)
	require.NoError(t, err)
	require.Equal(t, "rzp_test_1", c.KeyID())
	require.Equal(t, "w", c.WebhookSecret())
}
