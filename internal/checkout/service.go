package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/address"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/checkout/helpers"
	"github.com/angelmondragon/storefront-backend/internal/coupons"
	"github.com/angelmondragon/storefront-backend/internal/inventory"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service executes checkout orchestration.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*PlaceOrderResult, error)
}

// PlaceOrderInput is a buyer's checkout request. Client prices are never read.
type PlaceOrderInput struct {
	BuyerID       uuid.UUID
	Items         []types.CartLine
	AddressID     uuid.UUID
	PaymentMethod enums.PaymentMethod
	CouponCode    *string
}

// PlaceOrderResult lists the created orders and, for gateway methods, what
// the client needs to pay.
type PlaceOrderResult struct {
	CheckoutID  uuid.UUID
	OrderIDs    []uuid.UUID
	TotalCents  int64
	Currency    string
	RedirectURL *string
	Razorpay    *RazorpayHandoff
}

// RazorpayHandoff opens the Razorpay widget on the client.
type RazorpayHandoff struct {
	OrderID     string
	KeyID       string
	AmountMinor int64
	Currency    string
}

// Deps groups the collaborators of the checkout service.
type Deps struct {
	Tx        txRunner
	Orders    orders.Repository
	Ledger    *inventory.Ledger
	Users     *users.Repository
	Addresses *address.Repository
	Coupons   *coupons.Repository
	// Carts is cleared in the checkout transaction for offline methods;
	// gateway checkouts clear it on settlement.
	Carts     *cart.Repository
	Outbox    outboxPublisher
	Stripe    StripeSessions
	Razorpay  RazorpayOrders
	Metrics   *metrics.OrderMetrics
	Logger    *logger.Logger
	Now       func() time.Time
}

type service struct {
	Deps
	cfg config.CheckoutConfig
}

// NewService builds the checkout service.
func NewService(cfg config.CheckoutConfig, deps Deps) (Service, error) {
	if deps.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if deps.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if deps.Ledger == nil {
		return nil, fmt.Errorf("inventory ledger required")
	}
	if deps.Users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if deps.Addresses == nil {
		return nil, fmt.Errorf("address repository required")
	}
	if deps.Coupons == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	if deps.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if cfg.Currency == "" {
		cfg.Currency = "inr"
	}
	return &service{Deps: deps, cfg: cfg}, nil
}

func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*PlaceOrderResult, error) {
	if input.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.AddressID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address id required")
	}
	if err := helpers.ValidatePaymentMethod(input.PaymentMethod); err != nil {
		return nil, err
	}
	if err := s.gatewayAvailable(input.PaymentMethod); err != nil {
		return nil, err
	}
	lines, err := helpers.NormalizeLines(input.Items)
	if err != nil {
		s.Metrics.CheckoutFailed("validation")
		return nil, err
	}

	var (
		result  *PlaceOrderResult
		created []*models.Order
		buyer   *models.User
	)
	err = s.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		buyer, err = s.Users.WithTx(tx).FindByID(ctx, input.BuyerID)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeUnauthorized, "unknown user")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
		}
		if _, err := s.Addresses.WithTx(tx).FindForUser(ctx, input.AddressID, buyer.ID); err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "address not found").
					WithReason(pkgerrors.ReasonAddressNotFound)
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
		}

		coupon, err := s.loadCoupon(ctx, tx, buyer, input.CouponCode)
		if err != nil {
			return err
		}

		ledger := s.Ledger.WithTx(tx)
		priced, err := s.priceLines(ctx, ledger, lines)
		if err != nil {
			return err
		}

		groups := helpers.GroupLinesByStore(priced)
		totals := PriceGroups(groups, s.cfg.ShippingFeeCents, buyer.IsMember, coupons.NewAllocator(coupon))
		grandTotal := GrandTotal(totals)
		if _, isGateway := input.PaymentMethod.Gateway(); isGateway && grandTotal <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "nothing to pay online; choose cash on delivery")
		}

		now := s.Now().UTC()
		checkoutID := uuid.New()
		created = buildOrders(checkoutID, buyer.ID, input, coupon, s.cfg.Currency, totals, now)
		if err := s.Orders.WithTx(tx).CreateOrders(ctx, created); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create orders")
		}

		for _, line := range priced {
			if err := ledger.Decrement(ctx, line.ProductID, line.Quantity); err != nil {
				if errors.Is(err, inventory.ErrInsufficientStock) {
					return insufficientStock(line.ProductID, line.Name)
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
			}
		}

		if _, isGateway := input.PaymentMethod.Gateway(); !isGateway && s.Carts != nil {
			if _, err := s.Carts.WithTx(tx).Clear(ctx, buyer.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
			}
		}

		orderIDs := make([]uuid.UUID, len(created))
		for i, o := range created {
			orderIDs[i] = o.ID
		}
		var couponCode *string
		if coupon != nil {
			couponCode = &coupon.Code
		}
		if err := s.Outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateCheckout,
			AggregateID:   checkoutID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: buyer.ID, Role: enums.ActorRoleBuyer},
			OccurredAt:    now,
			Data: payloads.OrderCreatedEvent{
				CheckoutID:    checkoutID,
				UserID:        buyer.ID,
				OrderIDs:      orderIDs,
				PaymentMethod: input.PaymentMethod,
				TotalCents:    grandTotal,
				Currency:      s.cfg.Currency,
				CouponCode:    couponCode,
			},
		}); err != nil {
			return err
		}

		result = &PlaceOrderResult{
			CheckoutID: checkoutID,
			OrderIDs:   orderIDs,
			TotalCents: grandTotal,
			Currency:   s.cfg.Currency,
		}
		return nil
	})
	if err != nil {
		s.Metrics.CheckoutFailed(failureLabel(err))
		return nil, err
	}
	s.Metrics.OrdersPlaced(string(input.PaymentMethod), len(result.OrderIDs))

	logCtx := s.Logger.WithFields(s.Logger.WithUserID(ctx, buyer.ID.String()), map[string]any{
		"checkout_id":    result.CheckoutID.String(),
		"order_count":    len(result.OrderIDs),
		"payment_method": input.PaymentMethod,
	})
	s.Logger.Info(logCtx, "checkout committed")

	if err := s.handoff(ctx, input.PaymentMethod, buyer, created, result); err != nil {
		s.Logger.Error(logCtx, "payment handoff failed; orders stay unpaid", err)
		return result, err
	}
	return result, nil
}

func (s *service) loadCoupon(ctx context.Context, tx *gorm.DB, buyer *models.User, code *string) (*models.Coupon, error) {
	if code == nil || coupons.NormalizeCode(*code) == "" {
		return nil, nil
	}
	coupon, err := s.Coupons.WithTx(tx).FindByCode(ctx, *code)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, coupons.Check(nil, coupons.Buyer{}, s.Now())
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}
	hasOrders, err := s.Users.WithTx(tx).HasOrders(ctx, buyer.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check order history")
	}
	if err := coupons.Check(coupon, coupons.Buyer{IsMember: buyer.IsMember, IsNewUser: !hasOrders}, s.Now()); err != nil {
		return nil, err
	}
	return coupon, nil
}

// priceLines reads every product and checks stock before anything is written.
func (s *service) priceLines(ctx context.Context, ledger *inventory.Ledger, lines []types.CartLine) ([]helpers.PricedLine, error) {
	ids := make([]uuid.UUID, len(lines))
	for i, line := range lines {
		ids[i] = line.ProductID
	}
	products, err := ledger.FindProducts(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	priced := make([]helpers.PricedLine, 0, len(lines))
	for _, line := range lines {
		product, ok := products[line.ProductID]
		if !ok || !product.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
				WithReason(pkgerrors.ReasonProductNotFound, "productId", line.ProductID.String())
		}
		if product.Quantity < line.Quantity {
			return nil, insufficientStock(product.ID, product.Name)
		}
		priced = append(priced, helpers.PricedLine{
			ProductID:  product.ID,
			StoreID:    product.StoreID,
			Name:       product.Name,
			Quantity:   line.Quantity,
			PriceCents: product.PriceCents,
		})
	}
	return priced, nil
}

func buildOrders(checkoutID, buyerID uuid.UUID, input PlaceOrderInput, coupon *models.Coupon, currency string, totals []OrderTotals, now time.Time) []*models.Order {
	out := make([]*models.Order, 0, len(totals))
	for _, t := range totals {
		orderID := uuid.New()
		items := make([]models.OrderItem, 0, len(t.Group.Lines))
		for _, line := range t.Group.Lines {
			items = append(items, models.OrderItem{
				ID:         uuid.New(),
				OrderID:    orderID,
				ProductID:  line.ProductID,
				Name:       line.Name,
				Quantity:   line.Quantity,
				PriceCents: line.PriceCents,
			})
		}
		var couponCode *string
		if coupon != nil && t.DiscountCents > 0 {
			code := coupon.Code
			couponCode = &code
		}
		out = append(out, &models.Order{
			ID:               orderID,
			CheckoutID:       checkoutID,
			UserID:           buyerID,
			StoreID:          t.Group.StoreID,
			AddressID:        input.AddressID,
			Currency:         currency,
			SubtotalCents:    t.Group.SubtotalCents,
			ShippingFeeCents: t.ShippingFeeCents,
			DiscountCents:    t.DiscountCents,
			TotalCents:       t.TotalCents,
			CouponCode:       couponCode,
			PaymentMethod:    input.PaymentMethod,
			Status:           enums.OrderStatusPlaced,
			StatusHistory:    types.NewStatusHistory(enums.OrderStatusPlaced, now),
			RefundStatus:     enums.RefundStatusNone,
			Items:            items,
		})
	}
	return out
}

func insufficientStock(productID uuid.UUID, name string) error {
	return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("insufficient stock for %s", name)).
		WithReason(pkgerrors.ReasonInsufficientStock, "productId", productID.String(), "productName", name)
}

func failureLabel(err error) string {
	if reason := pkgerrors.ReasonOf(err); reason != "" {
		return string(reason)
	}
	if typed := pkgerrors.As(err); typed != nil {
		return string(typed.Code())
	}
	return "internal"
}
