package webhooks

import (
	"context"
	"net/http"

	"github.com/stripe/stripe-go/v83"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	pkgstripe "github.com/angelmondragon/storefront-backend/pkg/stripe"
)

type StripeWebhookService interface {
	HandleEvent(ctx context.Context, event stripe.Event) error
}

type stripeSigner interface {
	SigningSecret() string
}

// StripeWebhook checks the Stripe-Signature header against the raw body and
// passes checkout session events to the settlement listener once per event id.
func StripeWebhook(svc StripeWebhookService, client stripeSigner, guard EventGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		switch {
		case svc == nil:
			responses.WriteError(ctx, logg, w, unavailable("webhook service"))
			return
		case client == nil:
			responses.WriteError(ctx, logg, w, unavailable("stripe client"))
			return
		case guard == nil:
			responses.WriteError(ctx, logg, w, unavailable("idempotency guard"))
			return
		}

		payload, err := readPayload(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		header := r.Header.Get("Stripe-Signature")
		if header == "" {
			responses.WriteError(ctx, logg, w, invalidSignature("stripe signature missing"))
			return
		}
		event, err := pkgstripe.ConstructEvent(payload, header, client.SigningSecret())
		if err != nil {
			if logg != nil {
				logg.Warn(logg.WithField(ctx, "error", err.Error()), "stripe.webhook.signature_rejected")
			}
			responses.WriteError(ctx, logg, w, invalidSignature("invalid stripe signature"))
			return
		}

		if logg != nil {
			ctx = logg.WithGateway(ctx, "stripe", event.ID)
		}
		handleOnce(ctx, w, logg, guard, stripeConsumer, event.ID, func(ctx context.Context) error {
			return svc.HandleEvent(ctx, event)
		})
	}
}
