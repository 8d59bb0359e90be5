package stripe

import (
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/webhook"
)

// Event types the settlement listener acts on.
const (
	EventCheckoutSessionCompleted          = stripe.EventTypeCheckoutSessionCompleted
	EventCheckoutSessionAsyncPaymentFailed = stripe.EventTypeCheckoutSessionAsyncPaymentFailed
	EventCheckoutSessionAsyncPaymentOK     = stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded
	EventCheckoutSessionExpired            = stripe.EventTypeCheckoutSessionExpired
)

// ConstructEvent verifies the Stripe-Signature header over payload and decodes
// the event. API version drift between the dashboard and the SDK is tolerated.
func ConstructEvent(payload []byte, signature, secret string) (stripe.Event, error) {
	return webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
}

// SessionFromEvent decodes the checkout session carried by event.
func SessionFromEvent(event stripe.Event) (*stripe.CheckoutSession, error) {
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return nil, fmt.Errorf("stripe event %s has no data", event.ID)
	}
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}
	return &sess, nil
}

// PaymentIntentID returns the id of the session's payment intent, if any.
func PaymentIntentID(sess *stripe.CheckoutSession) string {
	if sess == nil || sess.PaymentIntent == nil {
		return ""
	}
	return sess.PaymentIntent.ID
}
