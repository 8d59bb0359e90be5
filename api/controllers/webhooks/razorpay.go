package webhooks

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/storefront-backend/api/responses"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/razorpay"
)

// razorpayEventIDHeader carries the delivery id Razorpay reuses on retries.
const razorpayEventIDHeader = "X-Razorpay-Event-Id"

type RazorpayWebhookService interface {
	HandleEvent(ctx context.Context, eventID string, event *razorpay.WebhookEvent, raw []byte) error
}

type razorpaySigner interface {
	WebhookSecret() string
}

// RazorpayWebhook verifies X-Razorpay-Signature before the body is parsed.
func RazorpayWebhook(svc RazorpayWebhookService, client razorpaySigner, guard EventGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		switch {
		case svc == nil:
			responses.WriteError(ctx, logg, w, unavailable("webhook service"))
			return
		case client == nil:
			responses.WriteError(ctx, logg, w, unavailable("razorpay client"))
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
		if !razorpay.VerifySignature(payload, r.Header.Get(razorpay.SignatureHeader), client.WebhookSecret()) {
			responses.WriteError(ctx, logg, w, invalidSignature("invalid razorpay signature"))
			return
		}
		event, err := razorpay.ParseWebhook(payload)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode event"))
			return
		}

		eventID := razorpayEventID(r, event)
		if eventID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "razorpay event id missing"))
			return
		}
		if logg != nil {
			ctx = logg.WithGateway(ctx, "razorpay", eventID)
		}
		handleOnce(ctx, w, logg, guard, razorpayConsumer, eventID, func(ctx context.Context) error {
			return svc.HandleEvent(ctx, eventID, event, payload)
		})
	}
}

// razorpayEventID prefers the delivery header and falls back to the event
// name plus payment id, which is stable across redeliveries.
func razorpayEventID(r *http.Request, event *razorpay.WebhookEvent) string {
	if id := strings.TrimSpace(r.Header.Get(razorpayEventIDHeader)); id != "" {
		return id
	}
	if payment := event.Payment(); payment != nil && payment.ID != "" {
		return event.Event + ":" + payment.ID
	}
	return ""
}
