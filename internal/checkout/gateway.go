package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/razorpay"
	pkgstripe "github.com/angelmondragon/storefront-backend/pkg/stripe"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// StripeSessions opens hosted Stripe checkout pages.
type StripeSessions interface {
	CreateCheckoutSession(ctx context.Context, input pkgstripe.CheckoutSessionInput) (*pkgstripe.CheckoutSession, error)
}

// RazorpayOrders creates Razorpay orders for the client widget.
type RazorpayOrders interface {
	CreateOrder(ctx context.Context, input razorpay.OrderInput) (*razorpay.Order, error)
	KeyID() string
}

func (s *service) gatewayAvailable(method enums.PaymentMethod) error {
	switch method {
	case enums.PaymentMethodStripe:
		if s.Stripe == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "card payments are not available")
		}
	case enums.PaymentMethodRazorpay:
		if s.Razorpay == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "razorpay payments are not available")
		}
	}
	return nil
}

// handoff runs after commit. A failure leaves the orders placed and unpaid.
func (s *service) handoff(ctx context.Context, method enums.PaymentMethod, buyer *models.User, created []*models.Order, result *PlaceOrderResult) error {
	switch method {
	case enums.PaymentMethodStripe:
		session, err := s.Stripe.CreateCheckoutSession(ctx, pkgstripe.CheckoutSessionInput{
			Currency:      result.Currency,
			SuccessURL:    s.cfg.SuccessURL,
			CancelURL:     s.cfg.CancelURL,
			CustomerEmail: buyer.Email,
			Lines:         stripeLines(created),
			Metadata: map[string]string{
				pkgstripe.MetadataOrderIDs: types.JoinUUIDs(result.OrderIDs),
				pkgstripe.MetadataUserID:   buyer.ID.String(),
				pkgstripe.MetadataAppID:    s.cfg.AppID,
			},
			IdempotencyKey: "checkout_" + result.CheckoutID.String(),
		})
		if err != nil {
			return gatewayFailed(enums.PaymentGatewayStripe, err, result.OrderIDs)
		}
		url := session.URL
		result.RedirectURL = &url
		if err := s.Orders.SetGatewayOrderRef(ctx, result.OrderIDs, session.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store stripe session id")
		}

	case enums.PaymentMethodRazorpay:
		order, err := s.Razorpay.CreateOrder(ctx, razorpay.OrderInput{
			AmountMinor: result.TotalCents,
			Currency:    result.Currency,
			Receipt:     result.CheckoutID.String(),
			Notes: map[string]string{
				razorpay.NoteAppID:    s.cfg.AppID,
				razorpay.NoteUserID:   buyer.ID.String(),
				razorpay.NoteOrderIDs: types.JoinUUIDs(result.OrderIDs),
			},
		})
		if err != nil {
			return gatewayFailed(enums.PaymentGatewayRazorpay, err, result.OrderIDs)
		}
		if err := s.Orders.SetGatewayOrderRef(ctx, result.OrderIDs, order.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store razorpay order id")
		}
		result.Razorpay = &RazorpayHandoff{
			OrderID:     order.ID,
			KeyID:       s.Razorpay.KeyID(),
			AmountMinor: order.AmountMinor,
			Currency:    order.Currency,
		}
	}
	return nil
}

// stripeLines bills each store order as one line so shipping and coupon
// adjustments stay inside the order total.
func stripeLines(created []*models.Order) []pkgstripe.CheckoutLine {
	lines := make([]pkgstripe.CheckoutLine, 0, len(created))
	for _, o := range created {
		if o.TotalCents <= 0 {
			continue
		}
		name := fmt.Sprintf("Order %s", strings.ToUpper(o.ID.String()[:8]))
		if len(o.Items) == 1 {
			name = fmt.Sprintf("%s x%d", o.Items[0].Name, o.Items[0].Quantity)
		}
		lines = append(lines, pkgstripe.CheckoutLine{Name: name, AmountCents: o.TotalCents, Quantity: 1})
	}
	return lines
}

func gatewayFailed(gateway enums.PaymentGateway, err error, orderIDs []uuid.UUID) error {
	ids := make([]string, len(orderIDs))
	for i, id := range orderIDs {
		ids[i] = id.String()
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("%s checkout could not be started", gateway)).
		WithReason(pkgerrors.ReasonGatewayFailed, "orderIds", ids)
}
