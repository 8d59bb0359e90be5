package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/users"
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

// ReceiptMailer sends the payment receipt after the first settlement.
type ReceiptMailer interface {
	SendReceipt(ctx context.Context, buyer models.User, paid []models.Order) error
}

// Event is a verified gateway notification about one or more orders.
type Event struct {
	Gateway    enums.PaymentGateway
	Type       string
	ID         string
	PaymentRef string
	Raw        []byte
}

// Result reports what a settlement call changed.
type Result struct {
	Settled   []uuid.UUID
	Unchanged []uuid.UUID
	Missing   []uuid.UUID
}

// Service applies gateway outcomes to orders. Both calls are safe to repeat.
type Service interface {
	MarkPaid(ctx context.Context, orderIDs []uuid.UUID, event Event) (*Result, error)
	MarkFailed(ctx context.Context, orderIDs []uuid.UUID, event Event) (*Result, error)
}

// Deps groups the collaborators of the settlement service.
type Deps struct {
	Tx       txRunner
	Orders   orders.Repository
	Carts    *cart.Repository
	Users    *users.Repository
	Outbox   outboxPublisher
	Receipts ReceiptMailer
	Metrics  *metrics.OrderMetrics
	Logger   *logger.Logger
	Now      func() time.Time
}

type service struct {
	Deps
}

func NewService(deps Deps) (Service, error) {
	if deps.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if deps.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if deps.Carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if deps.Users == nil {
		return nil, fmt.Errorf("users repository required")
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
	return &service{Deps: deps}, nil
}

func (s *service) MarkPaid(ctx context.Context, orderIDs []uuid.UUID, event Event) (*Result, error) {
	if err := validate(orderIDs, event); err != nil {
		return nil, err
	}
	logCtx := s.Logger.WithGateway(ctx, string(event.Gateway), event.ID)

	result := &Result{}
	var newlyPaid []models.Order
	err := s.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.Orders.WithTx(tx)
		now := s.Now().UTC()
		payload := types.NewGatewayPayload(event.Gateway, event.Type, event.ID, event.Raw)
		buyers := map[uuid.UUID]struct{}{}

		for _, id := range orderIDs {
			order, err := repo.FindByIDForUpdate(ctx, id)
			if err != nil {
				if db.IsNotFound(err) {
					result.Missing = append(result.Missing, id)
					continue
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
			}
			if order.IsPaid {
				result.Unchanged = append(result.Unchanged, id)
				continue
			}

			updates := map[string]any{
				"is_paid":      true,
				"paid_at":      now,
				"gateway_data": payload,
			}
			if event.PaymentRef != "" {
				updates["gateway_payment_ref"] = event.PaymentRef
				order.GatewayPaymentRef = &event.PaymentRef
			}
			// Money taken for a cancelled order is owed back; the order stays cancelled.
			if order.Status == enums.OrderStatusCancelled {
				updates["refund_status"] = enums.RefundStatusPending
				order.RefundStatus = enums.RefundStatusPending
			}
			if err := repo.Update(ctx, order.ID, updates); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
			}
			order.IsPaid = true
			order.PaidAt = &now
			order.GatewayData = payload

			if err := s.Outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventOrderPaid,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Version:       1,
				Actor:         orders.SystemActor.Ref(),
				OccurredAt:    now,
				Data: payloads.OrderPaidEvent{
					OrderID:    order.ID,
					UserID:     order.UserID,
					StoreID:    order.StoreID,
					Gateway:    event.Gateway,
					PaymentRef: event.PaymentRef,
					TotalCents: order.TotalCents,
					PaidAt:     now,
				},
			}); err != nil {
				return err
			}

			buyers[order.UserID] = struct{}{}
			newlyPaid = append(newlyPaid, *order)
			result.Settled = append(result.Settled, id)
		}

		carts := s.Carts.WithTx(tx)
		for buyerID := range buyers {
			if _, err := carts.Clear(ctx, buyerID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
			}
		}
		return nil
	})
	if err != nil {
		s.Metrics.Settlement(string(event.Gateway), "error")
		return nil, err
	}

	s.record(logCtx, event.Gateway, "paid", result)
	s.sendReceipts(logCtx, newlyPaid)
	return result, nil
}

func (s *service) MarkFailed(ctx context.Context, orderIDs []uuid.UUID, event Event) (*Result, error) {
	if err := validate(orderIDs, event); err != nil {
		return nil, err
	}
	logCtx := s.Logger.WithGateway(ctx, string(event.Gateway), event.ID)

	result := &Result{}
	err := s.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.Orders.WithTx(tx)
		now := s.Now().UTC()
		payload := types.NewGatewayPayload(event.Gateway, event.Type, event.ID, event.Raw)

		for _, id := range orderIDs {
			order, err := repo.FindByIDForUpdate(ctx, id)
			if err != nil {
				if db.IsNotFound(err) {
					result.Missing = append(result.Missing, id)
					continue
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
			}
			// A late failure for an earlier attempt never unpays an order.
			if order.IsPaid {
				result.Unchanged = append(result.Unchanged, id)
				continue
			}
			if err := repo.Update(ctx, order.ID, map[string]any{
				"is_paid":      false,
				"gateway_data": payload,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment failure")
			}
			if err := s.Outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventPaymentFailed,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Version:       1,
				Actor:         orders.SystemActor.Ref(),
				OccurredAt:    now,
				Data: payloads.PaymentFailedEvent{
					OrderID: order.ID,
					UserID:  order.UserID,
					StoreID: order.StoreID,
					Gateway: event.Gateway,
					EventID: event.ID,
				},
			}); err != nil {
				return err
			}
			result.Settled = append(result.Settled, id)
		}
		return nil
	})
	if err != nil {
		s.Metrics.Settlement(string(event.Gateway), "error")
		return nil, err
	}
	s.record(logCtx, event.Gateway, "failed", result)
	return result, nil
}

func (s *service) record(ctx context.Context, gateway enums.PaymentGateway, outcome string, result *Result) {
	if len(result.Settled) > 0 {
		s.Metrics.Settlement(string(gateway), outcome)
	} else if len(result.Unchanged) > 0 {
		s.Metrics.Settlement(string(gateway), "duplicate")
	}
	if len(result.Missing) > 0 {
		s.Metrics.Settlement(string(gateway), "unknown_order")
		s.Logger.Warn(s.Logger.WithField(ctx, "missing_orders", types.JoinUUIDs(result.Missing)), "settlement references unknown orders")
	}
	s.Logger.Info(s.Logger.WithFields(ctx, map[string]any{
		"outcome":   outcome,
		"settled":   len(result.Settled),
		"unchanged": len(result.Unchanged),
	}), "settlement applied")
}

// sendReceipts mails each buyer once per settlement. Failures are logged;
// the payment is already committed.
func (s *service) sendReceipts(ctx context.Context, paid []models.Order) {
	if s.Receipts == nil || len(paid) == 0 {
		return
	}
	byBuyer := map[uuid.UUID][]models.Order{}
	var buyerOrder []uuid.UUID
	for _, order := range paid {
		if _, seen := byBuyer[order.UserID]; !seen {
			buyerOrder = append(buyerOrder, order.UserID)
		}
		byBuyer[order.UserID] = append(byBuyer[order.UserID], order)
	}
	for _, buyerID := range buyerOrder {
		userCtx := s.Logger.WithUserID(ctx, buyerID.String())
		buyer, err := s.Users.FindByID(ctx, buyerID)
		if err != nil {
			s.Logger.Error(userCtx, "load buyer for receipt", err)
			continue
		}
		if err := s.Receipts.SendReceipt(ctx, *buyer, byBuyer[buyerID]); err != nil {
			s.Logger.Error(userCtx, "send payment receipt", err)
		}
	}
}

func validate(orderIDs []uuid.UUID, event Event) error {
	if !event.Gateway.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown payment gateway")
	}
	if len(orderIDs) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "no orders referenced by gateway event")
	}
	return nil
}
