package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/inventory"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service is the seller-driven status workflow plus cancellation.
type Service interface {
	Get(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error)
	CancelOrder(ctx context.Context, input CancelInput) (*models.Order, error)
}

// UpdateStatusInput moves an order forward on its fulfilment path.
type UpdateStatusInput struct {
	OrderID uuid.UUID
	Status  enums.OrderStatus
	Actor   Actor
}

// CancelInput cancels an order on behalf of its buyer or store owner.
type CancelInput struct {
	OrderID uuid.UUID
	Actor   Actor
}

type service struct {
	repo     Repository
	tx       txRunner
	outbox   outboxPublisher
	ledger   *inventory.Ledger
	stores   StoreOwnership
	delivery DeliveryCodeIssuer
	metrics  *metrics.OrderMetrics
	logg     *logger.Logger
	now      func() time.Time
}

// Option customizes the service.
type Option func(*service)

// WithDeliveryIssuer issues the first delivery code after DELIVERY_INITIATED.
func WithDeliveryIssuer(issuer DeliveryCodeIssuer) Option {
	return func(s *service) { s.delivery = issuer }
}

func WithMetrics(m *metrics.OrderMetrics) Option {
	return func(s *service) { s.metrics = m }
}

func WithLogger(logg *logger.Logger) Option {
	return func(s *service) { s.logg = logg }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

// NewService builds the order workflow service with the required dependencies.
func NewService(repo Repository, tx txRunner, outbox outboxPublisher, ledger *inventory.Ledger, stores StoreOwnership, opts ...Option) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("inventory ledger required")
	}
	if stores == nil {
		return nil, fmt.Errorf("store ownership lookup required")
	}
	svc := &service{
		repo:   repo,
		tx:     tx,
		outbox: outbox,
		ledger: ledger,
		stores: stores,
		logg:   logger.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, mapLoadError(err)
	}
	if err := s.authorizeParty(ctx, nil, order, actor); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.Actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}
	if input.Status == enums.OrderStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "use the cancel endpoint to cancel an order")
	}
	if input.Status == enums.OrderStatusDelivered {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "delivery is confirmed with the delivery code").
			WithReason(pkgerrors.ReasonInvalidOrderState)
	}

	var (
		updated *models.Order
		changed bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByIDForUpdate(ctx, input.OrderID)
		if err != nil {
			return mapLoadError(err)
		}
		if err := s.authorizeSeller(ctx, tx, order, input.Actor); err != nil {
			return err
		}
		if err := terminalError(order.Status); err != nil {
			return err
		}
		if order.Status == input.Status {
			updated = order
			return nil
		}
		if input.Status.Rank() < order.Status.Rank() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot move order from %s back to %s", order.Status, input.Status)).
				WithReason(pkgerrors.ReasonStatusRegression)
		}

		now := s.now().UTC()
		from := order.Status
		history := order.StatusHistory.Clone().Append(input.Status, now)
		if err := repo.Update(ctx, order.ID, map[string]any{
			"status":         input.Status,
			"status_history": history,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		order.Status = input.Status
		order.StatusHistory = history
		updated = order
		changed = true

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         input.Actor.Ref(),
			Data: payloads.OrderStatusChangedEvent{
				OrderID:   order.ID,
				StoreID:   order.StoreID,
				From:      from,
				To:        input.Status,
				ChangedAt: now,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	if changed && updated.Status == enums.OrderStatusDeliveryInitiated && s.delivery != nil {
		logCtx := s.logg.WithOrderID(ctx, updated.ID.String())
		if err := s.delivery.IssueInitial(ctx, updated.ID); err != nil {
			s.logg.Error(logCtx, "issue delivery code", err)
		} else if reloaded, err := s.repo.FindByID(ctx, updated.ID); err == nil {
			updated = reloaded
		}
	}
	return updated, nil
}

func (s *service) CancelOrder(ctx context.Context, input CancelInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.Actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var cancelled *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByIDForUpdate(ctx, input.OrderID)
		if err != nil {
			return mapLoadError(err)
		}
		if err := terminalError(order.Status); err != nil {
			return err
		}
		if err := s.authorizeParty(ctx, tx, order, input.Actor); err != nil {
			return err
		}

		ledger := s.ledger.WithTx(tx)
		for _, item := range order.Items {
			if err := ledger.Restore(ctx, item.ProductID, item.Quantity); err != nil {
				if db.IsNotFound(err) {
					s.logg.Warn(s.logg.WithField(ctx, "product_id", item.ProductID.String()), "cancelled item references a missing product")
					continue
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore stock")
			}
		}

		now := s.now().UTC()
		refund := order.RefundStatus
		if order.IsPaid && refund == enums.RefundStatusNone {
			refund = enums.RefundStatusPending
		}
		history := order.StatusHistory.Clone().Append(enums.OrderStatusCancelled, now)
		actorID := input.Actor.UserID
		if err := repo.Update(ctx, order.ID, map[string]any{
			"status":              enums.OrderStatusCancelled,
			"status_history":      history,
			"cancelled_at":        now,
			"cancelled_by":        actorID,
			"refund_status":       refund,
			"delivery_otp_hash":   nil,
			"delivery_otp_expiry": nil,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}
		order.Status = enums.OrderStatusCancelled
		order.StatusHistory = history
		order.CancelledAt = &now
		order.CancelledBy = &actorID
		order.RefundStatus = refund
		order.DeliveryOTPHash = nil
		order.DeliveryOTPExpiry = nil
		cancelled = order

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCanceled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         input.Actor.Ref(),
			Data: payloads.OrderCanceledEvent{
				OrderID:      order.ID,
				UserID:       order.UserID,
				StoreID:      order.StoreID,
				CancelledBy:  actorID,
				CancelledAt:  now,
				WasPaid:      order.IsPaid,
				RefundStatus: refund,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	s.metrics.OrderCancelled()
	return cancelled, nil
}

// authorizeParty allows the buyer, the store owner and admins.
func (s *service) authorizeParty(ctx context.Context, tx *gorm.DB, order *models.Order, actor Actor) error {
	if actor.IsAdmin() || actor.UserID == order.UserID {
		return nil
	}
	return s.authorizeSeller(ctx, tx, order, actor)
}

// authorizeSeller allows the store owner and admins.
func (s *service) authorizeSeller(ctx context.Context, tx *gorm.DB, order *models.Order, actor Actor) error {
	if actor.IsAdmin() {
		return nil
	}
	owner, err := s.stores.IsOwner(ctx, tx, order.StoreID, actor.UserID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check store ownership")
	}
	if !owner {
		return pkgerrors.New(pkgerrors.CodeForbidden, "not a party to this order").
			WithReason(pkgerrors.ReasonNotOrderParty)
	}
	return nil
}

func terminalError(status enums.OrderStatus) error {
	switch status {
	case enums.OrderStatusDelivered:
		return pkgerrors.New(pkgerrors.CodeConflict, "order already delivered").
			WithReason(pkgerrors.ReasonAlreadyDelivered)
	case enums.OrderStatusCancelled:
		return pkgerrors.New(pkgerrors.CodeConflict, "order already cancelled").
			WithReason(pkgerrors.ReasonAlreadyCancelled)
	}
	return nil
}

func mapLoadError(err error) error {
	if db.IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found").
			WithReason(pkgerrors.ReasonOrderNotFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
}
