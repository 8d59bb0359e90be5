package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
)

const defaultRefundBatchSize = 25

var errNoPaymentRef = errors.New("order has no gateway payment reference")

// StripeRefunder refunds a captured payment intent.
type StripeRefunder interface {
	RefundPaymentIntent(ctx context.Context, paymentIntentID string, amountCents int64, idempotencyKey string) (string, error)
}

// RazorpayRefunder refunds a captured Razorpay payment.
type RazorpayRefunder interface {
	RefundPayment(ctx context.Context, paymentID string, amountMinor int64) (string, error)
}

// RefundDispatchJobParams configure the refund dispatcher.
type RefundDispatchJobParams struct {
	Logger    *logger.Logger
	DB        txRunner
	Orders    orders.Repository
	Outbox    outboxEmitter
	Stripe    StripeRefunder
	Razorpay  RazorpayRefunder
	BatchSize int
}

// NewRefundDispatchJob issues refunds owed on cancelled paid orders.
func NewRefundDispatchJob(params RefundDispatchJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	if params.BatchSize <= 0 {
		params.BatchSize = defaultRefundBatchSize
	}
	return &refundDispatchJob{
		logg:      params.Logger,
		db:        params.DB,
		orders:    params.Orders,
		outbox:    params.Outbox,
		stripe:    params.Stripe,
		razorpay:  params.Razorpay,
		batchSize: params.BatchSize,
		now:       time.Now,
	}, nil
}

type refundDispatchJob struct {
	logg      *logger.Logger
	db        txRunner
	orders    orders.Repository
	outbox    outboxEmitter
	stripe    StripeRefunder
	razorpay  RazorpayRefunder
	batchSize int
	now       func() time.Time
}

func (j *refundDispatchJob) Name() string { return "refund-dispatch" }

func (j *refundDispatchJob) Run(ctx context.Context) error {
	pending, err := j.orders.ListPendingRefunds(ctx, j.batchSize)
	if err != nil {
		return fmt.Errorf("query pending refunds: %w", err)
	}

	var errs error
	counts := map[enums.RefundStatus]int{}
	for _, order := range pending {
		orderCtx := j.logg.WithOrderID(ctx, order.ID.String())
		gateway, ok := order.PaymentMethod.Gateway()
		if !ok {
			j.logg.Warn(orderCtx, "refund pending on an order without a payment gateway")
			errs = multierr.Append(errs, j.settle(ctx, order, gateway, enums.RefundStatusFailed, ""))
			counts[enums.RefundStatusFailed]++
			continue
		}
		if !j.configured(gateway) {
			j.logg.Warn(j.logg.WithField(orderCtx, "gateway", gateway), "refund gateway not configured; leaving refund pending")
			continue
		}

		status := enums.RefundStatusRefunded
		refundRef, refundErr := j.refund(ctx, gateway, order)
		if refundErr != nil {
			j.logg.Error(j.logg.WithField(orderCtx, "gateway", gateway), "refund failed", refundErr)
			status = enums.RefundStatusFailed
		}
		if err := j.settle(ctx, order, gateway, status, refundRef); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("record refund for %s: %w", order.ID, err))
			continue
		}
		counts[status]++
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"pending":  len(pending),
		"refunded": counts[enums.RefundStatusRefunded],
		"failed":   counts[enums.RefundStatusFailed],
	}), "refund dispatch complete")
	return errs
}

func (j *refundDispatchJob) configured(gateway enums.PaymentGateway) bool {
	switch gateway {
	case enums.PaymentGatewayStripe:
		return j.stripe != nil
	case enums.PaymentGatewayRazorpay:
		return j.razorpay != nil
	}
	return false
}

func (j *refundDispatchJob) refund(ctx context.Context, gateway enums.PaymentGateway, order models.Order) (string, error) {
	if order.GatewayPaymentRef == nil || *order.GatewayPaymentRef == "" {
		return "", errNoPaymentRef
	}
	switch gateway {
	case enums.PaymentGatewayStripe:
		return j.stripe.RefundPaymentIntent(ctx, *order.GatewayPaymentRef, order.TotalCents, "refund:"+order.ID.String())
	case enums.PaymentGatewayRazorpay:
		return j.razorpay.RefundPayment(ctx, *order.GatewayPaymentRef, order.TotalCents)
	}
	return "", fmt.Errorf("unsupported gateway %s", gateway)
}

func (j *refundDispatchJob) settle(ctx context.Context, order models.Order, gateway enums.PaymentGateway, status enums.RefundStatus, refundRef string) error {
	return j.db.WithTx(ctx, func(tx *gorm.DB) error {
		updates := map[string]any{"refund_status": status}
		if refundRef != "" {
			updates["refund_ref"] = refundRef
		}
		if err := j.orders.WithTx(tx).Update(ctx, order.ID, updates); err != nil {
			return err
		}
		return j.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRefundSettled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			OccurredAt:    j.now().UTC(),
			Data: payloads.RefundSettledEvent{
				OrderID:     order.ID,
				Gateway:     gateway,
				Status:      status,
				RefundRef:   refundRef,
				AmountCents: order.TotalCents,
			},
		})
	})
}
