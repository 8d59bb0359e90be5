package razorpaywebhook

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/internal/settlement"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/razorpay"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

type orderLookup interface {
	FindByGatewayOrderRef(ctx context.Context, ref string) ([]models.Order, error)
}

type ServiceParams struct {
	Settlement settlement.Service
	Orders     orderLookup
	AppID      string
	Metrics    *metrics.OrderMetrics
	Logger     *logger.Logger
}

// Service applies verified Razorpay payment events.
type Service struct {
	settlement settlement.Service
	orders     orderLookup
	appID      string
	metrics    *metrics.OrderMetrics
	logg       *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Settlement == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "settlement service required")
	}
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order lookup required")
	}
	if params.AppID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "app id required")
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	return &Service{
		settlement: params.Settlement,
		orders:     params.Orders,
		appID:      params.AppID,
		metrics:    params.Metrics,
		logg:       params.Logger,
	}, nil
}

// HandleEvent settles the orders behind the payment's Razorpay order. eventID
// is the delivery id used for logging and the stored payload.
func (s *Service) HandleEvent(ctx context.Context, eventID string, event *razorpay.WebhookEvent, raw []byte) error {
	if event == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "razorpay event required")
	}
	ctx = s.logg.WithGateway(ctx, string(enums.PaymentGatewayRazorpay), eventID)

	var paid bool
	switch event.Event {
	case razorpay.EventPaymentCaptured, razorpay.EventOrderPaid:
		paid = true
	case razorpay.EventPaymentFailed:
		paid = false
	default:
		s.ignore(ctx, fmt.Sprintf("unhandled razorpay event %s", event.Event))
		return nil
	}

	payment := event.Payment()
	if payment == nil {
		s.ignore(ctx, "razorpay event carries no payment")
		return nil
	}
	if app, ok := payment.Notes[razorpay.NoteAppID]; ok && app != s.appID {
		s.ignore(ctx, "razorpay payment belongs to another application")
		return nil
	}

	orderIDs, err := s.resolveOrders(ctx, payment)
	if err != nil {
		return err
	}
	if len(orderIDs) == 0 {
		s.metrics.Settlement(string(enums.PaymentGatewayRazorpay), "unknown_order")
		s.logg.Warn(s.logg.WithField(ctx, "razorpay_order_id", payment.OrderID), "razorpay payment matches no orders")
		return nil
	}

	settled := settlement.Event{
		Gateway:    enums.PaymentGatewayRazorpay,
		Type:       event.Event,
		ID:         eventID,
		PaymentRef: payment.ID,
		Raw:        raw,
	}
	if paid {
		_, err = s.settlement.MarkPaid(ctx, orderIDs, settled)
	} else {
		_, err = s.settlement.MarkFailed(ctx, orderIDs, settled)
	}
	return err
}

// resolveOrders prefers the stored gateway order reference and falls back to
// the order ids noted on the payment.
func (s *Service) resolveOrders(ctx context.Context, payment *razorpay.PaymentEntity) ([]uuid.UUID, error) {
	if payment.OrderID != "" {
		matched, err := s.orders.FindByGatewayOrderRef(ctx, payment.OrderID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup orders by razorpay order")
		}
		if len(matched) > 0 {
			ids := make([]uuid.UUID, len(matched))
			for i, order := range matched {
				ids[i] = order.ID
			}
			return ids, nil
		}
	}
	if payment.Notes[razorpay.NoteAppID] != s.appID {
		return nil, nil
	}
	return types.ParseUUIDList(payment.Notes[razorpay.NoteOrderIDs]), nil
}

func (s *Service) ignore(ctx context.Context, msg string) {
	s.metrics.Settlement(string(enums.PaymentGatewayRazorpay), "ignored")
	s.logg.Info(ctx, msg)
}
