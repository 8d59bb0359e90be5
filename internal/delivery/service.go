package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/notifications"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/stores"
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
	"github.com/angelmondragon/storefront-backend/pkg/redis"
	"github.com/angelmondragon/storefront-backend/pkg/security"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// CodeMailer delivers the plaintext code to the buyer.
type CodeMailer interface {
	SendDeliveryCode(ctx context.Context, in notifications.DeliveryCode) error
}

// Service guards the final DELIVERED transition with an emailed one-time code.
type Service interface {
	IssueOrResend(ctx context.Context, orderID uuid.UUID, actor orders.Actor) (*models.Order, error)
	IssueInitial(ctx context.Context, orderID uuid.UUID) error
	Verify(ctx context.Context, orderID uuid.UUID, code string, actor orders.Actor) (*models.Order, error)
}

// Deps groups the collaborators of the delivery code service.
type Deps struct {
	Tx      txRunner
	Orders  orders.Repository
	Users   *users.Repository
	Stores  *stores.Repository
	Outbox  outboxPublisher
	Mailer  CodeMailer
	Limiter redis.RateLimiter
	Metrics *metrics.OrderMetrics
	Logger  *logger.Logger
	Now     func() time.Time
	// NewCode generates the plaintext code; defaults to a random numeric code.
	NewCode func(length int) (string, error)
}

type service struct {
	Deps
	cfg config.OTPConfig
}

func NewService(cfg config.OTPConfig, deps Deps) (Service, error) {
	if deps.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if deps.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if deps.Users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if deps.Stores == nil {
		return nil, fmt.Errorf("stores repository required")
	}
	if deps.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if deps.Mailer == nil {
		return nil, fmt.Errorf("code mailer required")
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewCode == nil {
		deps.NewCode = security.GenerateNumericCode
	}
	if cfg.Length <= 0 {
		cfg.Length = 6
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	if cfg.MaxResends <= 0 {
		cfg.MaxResends = 3
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	return &service{Deps: deps, cfg: cfg}, nil
}

func (s *service) IssueInitial(ctx context.Context, orderID uuid.UUID) error {
	_, err := s.issue(ctx, orderID, orders.SystemActor, true)
	return err
}

func (s *service) IssueOrResend(ctx context.Context, orderID uuid.UUID, actor orders.Actor) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	return s.issue(ctx, orderID, actor, false)
}

// issue mints and mails a fresh code. The initial send on DELIVERY_INITIATED
// starts the resend budget at zero; only buyer requested resends count toward
// MaxResends and the resend window.
func (s *service) issue(ctx context.Context, orderID uuid.UUID, actor orders.Actor, initial bool) (*models.Order, error) {
	var issued *models.Order
	err := s.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.Orders.WithTx(tx)
		order, err := repo.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return mapLoadError(err)
		}
		if order.Status != enums.OrderStatusDeliveryInitiated {
			return invalidState(order.Status)
		}
		if actor.Role != enums.ActorRoleSystem {
			if err := s.authorize(ctx, tx, order, actor, true); err != nil {
				return err
			}
		}
		resends := 0
		if !initial {
			if order.OTPResendCount >= s.cfg.MaxResends {
				return pkgerrors.New(pkgerrors.CodeRateLimit, "delivery code resend limit reached").
					WithReason(pkgerrors.ReasonResendLimitExceeded)
			}
			if err := s.checkResendWindow(ctx, order.ID); err != nil {
				return err
			}
			resends = order.OTPResendCount + 1
		}

		buyer, err := s.Users.WithTx(tx).FindByID(ctx, order.UserID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load buyer")
		}
		storeName := ""
		if store, err := s.Stores.WithTx(tx).FindByID(ctx, order.StoreID); err == nil {
			storeName = store.Name
		}

		code, err := s.NewCode(s.cfg.Length)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate delivery code")
		}
		hash, err := security.HashSecret(code, s.cfg)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash delivery code")
		}
		expiry := s.Now().UTC().Add(s.cfg.TTL)
		if err := repo.Update(ctx, order.ID, map[string]any{
			"delivery_otp_hash":   hash,
			"delivery_otp_expiry": expiry,
			"otp_resend_count":    resends,
			"otp_verify_attempts": 0,
			"otp_verified":        false,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store delivery code")
		}

		// The row update rolls back if the buyer cannot be emailed.
		if err := s.Mailer.SendDeliveryCode(ctx, notifications.DeliveryCode{
			Buyer:     *buyer,
			StoreName: storeName,
			OrderID:   order.ID.String(),
			Code:      code,
			ExpiresIn: s.cfg.TTL,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send delivery code email")
		}

		order.DeliveryOTPHash = &hash
		order.DeliveryOTPExpiry = &expiry
		order.OTPResendCount = resends
		order.OTPVerifyAttempts = 0
		order.OTPVerified = false
		issued = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	logCtx := s.Logger.WithFields(s.Logger.WithOrderID(ctx, orderID.String()), map[string]any{
		"otp_resend_count": issued.OTPResendCount,
	})
	s.Logger.Info(logCtx, "delivery code issued")
	return issued, nil
}

func (s *service) checkResendWindow(ctx context.Context, orderID uuid.UUID) error {
	if s.Limiter == nil || s.cfg.ResendWindow <= 0 {
		return nil
	}
	allowed, _, err := s.Limiter.FixedWindowAllow(ctx, "otp_resend:"+orderID.String(), 1, s.cfg.ResendWindow)
	if err != nil {
		s.Logger.Warn(s.Logger.WithOrderID(ctx, orderID.String()), "delivery code resend window unavailable: "+err.Error())
		return nil
	}
	if !allowed {
		return pkgerrors.New(pkgerrors.CodeRateLimit, "please wait before requesting another code").
			WithReason(pkgerrors.ReasonResendTooSoon)
	}
	return nil
}

type verifyOutcome int

const (
	outcomeDelivered verifyOutcome = iota + 1
	outcomeMismatch
)

func (s *service) Verify(ctx context.Context, orderID uuid.UUID, code string, actor orders.Actor) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery code required")
	}
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var (
		outcome verifyOutcome
		result  *models.Order
	)
	err := s.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.Orders.WithTx(tx)
		order, err := repo.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return mapLoadError(err)
		}
		if order.Status != enums.OrderStatusDeliveryInitiated {
			return invalidState(order.Status)
		}
		if err := s.authorize(ctx, tx, order, actor, false); err != nil {
			return err
		}
		if order.OTPVerifyAttempts >= s.cfg.MaxAttempts {
			return pkgerrors.New(pkgerrors.CodeRateLimit, "too many incorrect codes").
				WithReason(pkgerrors.ReasonAttemptsExceeded)
		}
		if order.DeliveryOTPHash == nil || order.DeliveryOTPExpiry == nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "no delivery code has been issued").
				WithReason(pkgerrors.ReasonOTPNotIssued)
		}
		now := s.Now().UTC()
		if now.After(*order.DeliveryOTPExpiry) {
			return pkgerrors.New(pkgerrors.CodeValidation, "delivery code expired").
				WithReason(pkgerrors.ReasonOTPExpired)
		}

		match, err := security.VerifySecret(code, *order.DeliveryOTPHash)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify delivery code")
		}
		if !match {
			if err := repo.Update(ctx, order.ID, map[string]any{
				"otp_verify_attempts": gorm.Expr("otp_verify_attempts + 1"),
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record failed attempt")
			}
			outcome = outcomeMismatch
			return nil
		}

		history := order.StatusHistory.Clone().Append(enums.OrderStatusDelivered, now)
		if err := repo.Update(ctx, order.ID, map[string]any{
			"status":              enums.OrderStatusDelivered,
			"status_history":      history,
			"delivered_at":        now,
			"delivery_otp_hash":   nil,
			"delivery_otp_expiry": nil,
			"otp_verify_attempts": 0,
			"otp_resend_count":    0,
			"otp_verified":        true,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark delivered")
		}
		order.Status = enums.OrderStatusDelivered
		order.StatusHistory = history
		order.DeliveredAt = &now
		order.DeliveryOTPHash = nil
		order.DeliveryOTPExpiry = nil
		order.OTPVerifyAttempts = 0
		order.OTPResendCount = 0
		order.OTPVerified = true
		result = order
		outcome = outcomeDelivered

		return s.Outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderDelivered,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         actor.Ref(),
			OccurredAt:    now,
			Data: payloads.OrderDeliveredEvent{
				OrderID:     order.ID,
				UserID:      order.UserID,
				StoreID:     order.StoreID,
				DeliveredAt: now,
			},
		})
	})
	if err != nil {
		s.Metrics.OTPCheck(metricResult(err))
		return nil, err
	}
	if outcome == outcomeMismatch {
		s.Metrics.OTPCheck("invalid")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "incorrect delivery code").
			WithReason(pkgerrors.ReasonInvalidOTP)
	}
	s.Metrics.OTPCheck("delivered")
	s.Logger.Info(s.Logger.WithOrderID(ctx, orderID.String()), "order delivered")
	return result, nil
}

// authorize lets admins and the store owner through; buyers only when
// allowBuyer is set.
func (s *service) authorize(ctx context.Context, tx *gorm.DB, order *models.Order, actor orders.Actor, allowBuyer bool) error {
	if actor.IsAdmin() {
		return nil
	}
	if allowBuyer && actor.UserID == order.UserID {
		return nil
	}
	owner, err := s.Stores.IsOwner(ctx, tx, order.StoreID, actor.UserID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check store ownership")
	}
	if !owner {
		return pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to act on this order").
			WithReason(pkgerrors.ReasonNotOrderParty)
	}
	return nil
}

func invalidState(status enums.OrderStatus) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting delivery confirmation").
		WithReason(pkgerrors.ReasonInvalidOrderState, "status", string(status))
}

func mapLoadError(err error) error {
	if db.IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found").
			WithReason(pkgerrors.ReasonOrderNotFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
}

func metricResult(err error) string {
	switch pkgerrors.ReasonOf(err) {
	case pkgerrors.ReasonOTPExpired:
		return "expired"
	case pkgerrors.ReasonAttemptsExceeded:
		return "locked"
	case pkgerrors.ReasonOTPNotIssued, pkgerrors.ReasonInvalidOrderState:
		return "state"
	}
	return "error"
}
