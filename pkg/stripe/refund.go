package stripe

import (
	"context"
	"errors"
	"strings"

	"github.com/stripe/stripe-go/v83"
)

// RefundPaymentIntent refunds amountCents of a captured payment intent (the
// full amount when zero) and returns the refund id.
func (c *Client) RefundPaymentIntent(ctx context.Context, paymentIntentID string, amountCents int64, idempotencyKey string) (string, error) {
	if err := c.ready(); err != nil {
		return "", err
	}
	if strings.TrimSpace(paymentIntentID) == "" {
		return "", errors.New("payment intent id is required")
	}

	params := &stripe.RefundCreateParams{
		PaymentIntent: stripe.String(paymentIntentID),
		Reason:        stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
	}
	if amountCents > 0 {
		params.Amount = stripe.Int64(amountCents)
	}
	if idempotencyKey != "" {
		params.SetIdempotencyKey(idempotencyKey)
	}

	r, err := c.api.V1Refunds.Create(ctx, params)
	if err != nil {
		return "", err
	}
	return r.ID, nil
}
