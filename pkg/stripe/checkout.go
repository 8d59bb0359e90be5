package stripe

import (
	"context"
	"errors"
	"strings"

	"github.com/stripe/stripe-go/v83"
)

// Checkout session metadata keys read back by the webhook listener.
const (
	MetadataOrderIDs = "orderIds"
	MetadataUserID   = "userId"
	MetadataAppID    = "appId"
)

// CheckoutLine is one priced line of a hosted checkout page.
type CheckoutLine struct {
	Name        string
	AmountCents int64
	Quantity    int64
}

type CheckoutSessionInput struct {
	Currency      string
	SuccessURL    string
	CancelURL     string
	CustomerEmail string
	Lines         []CheckoutLine
	Metadata      map[string]string
	// IdempotencyKey, when set, makes a retried create return the same session.
	IdempotencyKey string
}

type CheckoutSession struct {
	ID  string
	URL string
}

// CreateCheckoutSession opens a hosted payment-mode checkout session.
func (c *Client) CreateCheckoutSession(ctx context.Context, input CheckoutSessionInput) (*CheckoutSession, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	if len(input.Lines) == 0 {
		return nil, errors.New("checkout session requires at least one line")
	}

	currency := strings.ToLower(input.Currency)
	items := make([]*stripe.CheckoutSessionCreateLineItemParams, 0, len(input.Lines))
	for _, line := range input.Lines {
		items = append(items, &stripe.CheckoutSessionCreateLineItemParams{
			Quantity: stripe.Int64(line.Quantity),
			PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
				Currency:   stripe.String(currency),
				UnitAmount: stripe.Int64(line.AmountCents),
				ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
					Name: stripe.String(line.Name),
				},
			},
		})
	}

	params := &stripe.CheckoutSessionCreateParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(input.SuccessURL),
		CancelURL:  stripe.String(input.CancelURL),
		LineItems:  items,
		Metadata:   input.Metadata,
	}
	if email := strings.TrimSpace(input.CustomerEmail); email != "" {
		params.CustomerEmail = stripe.String(email)
	}
	if input.IdempotencyKey != "" {
		params.SetIdempotencyKey(input.IdempotencyKey)
	}

	sess, err := c.api.V1CheckoutSessions.Create(ctx, params)
	if err != nil {
		return nil, err
	}
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}
