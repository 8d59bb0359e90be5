package stripewebhook

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v83"

	"github.com/angelmondragon/storefront-backend/internal/settlement"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	pkgstripe "github.com/angelmondragon/storefront-backend/pkg/stripe"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

type ServiceParams struct {
	Settlement settlement.Service
	// AppID must match the appId metadata written at checkout.
	AppID   string
	Metrics *metrics.OrderMetrics
	Logger  *logger.Logger
}

// Service turns verified checkout session events into settlement calls.
type Service struct {
	settlement settlement.Service
	appID      string
	metrics    *metrics.OrderMetrics
	logg       *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Settlement == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "settlement service required")
	}
	if params.AppID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "app id required")
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	return &Service{
		settlement: params.Settlement,
		appID:      params.AppID,
		metrics:    params.Metrics,
		logg:       params.Logger,
	}, nil
}

// HandleEvent applies event. Events that do not concern this application are
// acknowledged without changes.
func (s *Service) HandleEvent(ctx context.Context, event stripe.Event) error {
	ctx = s.logg.WithGateway(ctx, string(enums.PaymentGatewayStripe), event.ID)

	var paid bool
	switch event.Type {
	case pkgstripe.EventCheckoutSessionCompleted, pkgstripe.EventCheckoutSessionAsyncPaymentOK:
		paid = true
	case pkgstripe.EventCheckoutSessionAsyncPaymentFailed, pkgstripe.EventCheckoutSessionExpired:
		paid = false
	default:
		s.ignore(ctx, fmt.Sprintf("unhandled stripe event type %s", event.Type))
		return nil
	}

	sess, err := pkgstripe.SessionFromEvent(event)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode checkout session")
	}
	if sess.Metadata[pkgstripe.MetadataAppID] != s.appID {
		s.ignore(ctx, "checkout session belongs to another application")
		return nil
	}
	orderIDs := types.ParseUUIDList(sess.Metadata[pkgstripe.MetadataOrderIDs])
	if len(orderIDs) == 0 {
		s.ignore(ctx, "checkout session carries no order ids")
		return nil
	}

	settled := settlement.Event{
		Gateway:    enums.PaymentGatewayStripe,
		Type:       string(event.Type),
		ID:         event.ID,
		PaymentRef: pkgstripe.PaymentIntentID(sess),
		Raw:        event.Data.Raw,
	}

	if !paid {
		_, err := s.settlement.MarkFailed(ctx, orderIDs, settled)
		return err
	}
	// Completed sessions for delayed methods settle on the async event.
	if event.Type == pkgstripe.EventCheckoutSessionCompleted && !sessionPaid(sess) {
		s.ignore(ctx, "checkout session awaiting async payment")
		return nil
	}
	_, err = s.settlement.MarkPaid(ctx, orderIDs, settled)
	return err
}

func sessionPaid(sess *stripe.CheckoutSession) bool {
	return sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid ||
		sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusNoPaymentRequired
}

func (s *Service) ignore(ctx context.Context, msg string) {
	s.metrics.Settlement(string(enums.PaymentGatewayStripe), "ignored")
	s.logg.Info(ctx, msg)
}
