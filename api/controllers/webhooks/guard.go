package webhooks

import (
	"context"
	"io"
	"net/http"

	"github.com/angelmondragon/storefront-backend/api/responses"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// EventGuard claims gateway event ids per consumer so a redelivered webhook
// is acknowledged without settling twice.
type EventGuard interface {
	Claim(ctx context.Context, consumer, eventID string) (bool, error)
	Release(ctx context.Context, consumer, eventID string) error
}

const (
	stripeConsumer   = "stripe-webhook"
	razorpayConsumer = "razorpay-webhook"
)

// maxWebhookBody caps the raw payload read before signature verification.
const maxWebhookBody = 1 << 20

var received = map[string]bool{"received": true}

func invalidSignature(msg string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, msg).WithReason(pkgerrors.ReasonInvalidSignature)
}

func unavailable(what string) error {
	return pkgerrors.New(pkgerrors.CodeInternal, what+" unavailable")
}

// readPayload returns the raw body. Signatures cover the exact bytes, so a
// truncated body is rejected rather than verified.
func readPayload(r *http.Request) ([]byte, error) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody+1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body")
	}
	if len(payload) > maxWebhookBody {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "webhook payload too large")
	}
	return payload, nil
}

// handleOnce runs handle unless the event was already claimed. A failed run
// releases the claim so the gateway's retry is processed.
func handleOnce(ctx context.Context, w http.ResponseWriter, logg *logger.Logger, guard EventGuard, consumer, eventID string, handle func(context.Context) error) {
	if logg != nil {
		ctx = logg.WithField(ctx, "consumer", consumer)
	}
	claimed, err := guard.Claim(ctx, consumer, eventID)
	if err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim webhook event"))
		return
	}
	if !claimed {
		if logg != nil {
			logg.Info(ctx, "webhook.duplicate")
		}
		responses.WriteSuccess(w, received)
		return
	}

	if err := handle(ctx); err != nil {
		if relErr := guard.Release(context.WithoutCancel(ctx), consumer, eventID); relErr != nil && logg != nil {
			logg.Error(ctx, "webhook.release_failed", relErr)
		}
		responses.WriteError(ctx, logg, w, err)
		return
	}
	if logg != nil {
		logg.Info(ctx, "webhook.processed")
	}
	responses.WriteSuccess(w, received)
}
