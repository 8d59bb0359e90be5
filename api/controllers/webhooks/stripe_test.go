package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/webhook"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

const stripeSecret = "whsec_test"

// claimSet is an in-memory EventGuard.
type claimSet struct {
	mu       sync.Mutex
	claimed  map[string]bool
	released []string
}

func newGuard(t *testing.T) *claimSet {
	t.Helper()
	return &claimSet{claimed: map[string]bool{}}
}

func (c *claimSet) Claim(_ context.Context, consumer, eventID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := consumer + "/" + eventID
	if c.claimed[key] {
		return false, nil
	}
	c.claimed[key] = true
	return true, nil
}

func (c *claimSet) Release(_ context.Context, consumer, eventID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := consumer + "/" + eventID
	delete(c.claimed, key)
	c.released = append(c.released, key)
	return nil
}

type fakeSigningClient struct {
	secret string
}

func (c *fakeSigningClient) SigningSecret() string { return c.secret }
func (c *fakeSigningClient) WebhookSecret() string { return c.secret }

type fakeStripeWebhookService struct {
	calls int
	last  stripe.Event
	err   error
}

func (f *fakeStripeWebhookService) HandleEvent(_ context.Context, event stripe.Event) error {
	f.calls++
	f.last = event
	return f.err
}

// signedStripeEvent builds a checkout.session.completed event signed the way
// Stripe signs deliveries.
func signedStripeEvent(t *testing.T) (payload []byte, header, eventID string) {
	t.Helper()
	session, err := json.Marshal(map[string]any{
		"id":             "cs_test_" + uuid.NewString(),
		"object":         "checkout.session",
		"payment_status": "paid",
		"metadata":       map[string]string{"orderIds": uuid.NewString(), "appId": "storefront"},
	})
	require.NoError(t, err)

	eventID = "evt_" + uuid.NewString()
	payload, err = json.Marshal(stripe.Event{
		ID:         eventID,
		Type:       stripe.EventTypeCheckoutSessionCompleted,
		Object:     "event",
		APIVersion: stripe.APIVersion,
		Data:       &stripe.EventData{Raw: session},
	})
	require.NoError(t, err)

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    stripeSecret,
		Timestamp: time.Now(),
	})
	return signed.Payload, signed.Header, eventID
}

func postStripe(handler http.Handler, payload []byte, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", bytes.NewReader(payload))
	if header != "" {
		req.Header.Set("Stripe-Signature", header)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func errorReason(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	reason, _ := body.Error.Details["reason"].(string)
	return reason
}

func TestStripeWebhookHandlesEachEventOnce(t *testing.T) {
	payload, header, eventID := signedStripeEvent(t)
	svc := &fakeStripeWebhookService{}
	handler := StripeWebhook(svc, &fakeSigningClient{secret: stripeSecret}, newGuard(t), nil)

	for range 2 {
		rec := postStripe(handler, payload, header)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.JSONEq(t, `{"data":{"received":true}}`, rec.Body.String())
	}
	assert.Equal(t, 1, svc.calls)
	assert.Equal(t, eventID, svc.last.ID)
}

func TestStripeWebhookSignatureFailures(t *testing.T) {
	payload, _, _ := signedStripeEvent(t)
	cases := map[string]string{
		"missing header": "",
		"wrong digest":   "t=1,v1=deadbeef",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			svc := &fakeStripeWebhookService{}
			handler := StripeWebhook(svc, &fakeSigningClient{secret: stripeSecret}, newGuard(t), nil)

			rec := postStripe(handler, payload, header)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, string(pkgerrors.ReasonInvalidSignature), errorReason(t, rec))
			assert.Zero(t, svc.calls)
		})
	}
}

func TestStripeWebhookFailureReleasesClaim(t *testing.T) {
	payload, header, eventID := signedStripeEvent(t)
	svc := &fakeStripeWebhookService{err: pkgerrors.New(pkgerrors.CodeDependency, "db down")}
	guard := newGuard(t)
	handler := StripeWebhook(svc, &fakeSigningClient{secret: stripeSecret}, guard, nil)

	require.Equal(t, http.StatusServiceUnavailable, postStripe(handler, payload, header).Code)
	assert.Equal(t, []string{stripeConsumer + "/" + eventID}, guard.released)

	svc.err = nil
	require.Equal(t, http.StatusOK, postStripe(handler, payload, header).Code)
	assert.Equal(t, 2, svc.calls)
}

func TestStripeWebhookRejectsOversizedPayload(t *testing.T) {
	svc := &fakeStripeWebhookService{}
	handler := StripeWebhook(svc, &fakeSigningClient{secret: stripeSecret}, newGuard(t), nil)

	big := []byte(`{"pad":"` + strings.Repeat("x", maxWebhookBody) + `"}`)
	rec := postStripe(handler, big, "t=1,v1=00")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, svc.calls)
}

func TestStripeWebhookMissingDependencies(t *testing.T) {
	payload, header, _ := signedStripeEvent(t)
	handler := StripeWebhook(&fakeStripeWebhookService{}, &fakeSigningClient{secret: stripeSecret}, nil, nil)
	assert.Equal(t, http.StatusInternalServerError, postStripe(handler, payload, header).Code)
}
