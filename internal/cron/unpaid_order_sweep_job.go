package cron

import (
	"context"
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

const (
	defaultUnpaidAfter    = 24 * time.Hour
	defaultSweepBatchSize = 200
)

// UnpaidOrderSweepJobParams configure the stale gateway order sweep.
type UnpaidOrderSweepJobParams struct {
	Logger      *logger.Logger
	DB          txRunner
	Orders      orders.Repository
	Outbox      outboxEmitter
	UnpaidAfter time.Duration
	BatchSize   int
}

// NewUnpaidOrderSweepJob flags gateway orders that were never paid. It never
// cancels or restocks.
func NewUnpaidOrderSweepJob(params UnpaidOrderSweepJobParams) (Job, error) {
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
	if params.UnpaidAfter <= 0 {
		params.UnpaidAfter = defaultUnpaidAfter
	}
	if params.BatchSize <= 0 {
		params.BatchSize = defaultSweepBatchSize
	}
	return &unpaidOrderSweepJob{
		logg:        params.Logger,
		db:          params.DB,
		orders:      params.Orders,
		outbox:      params.Outbox,
		unpaidAfter: params.UnpaidAfter,
		batchSize:   params.BatchSize,
		now:         time.Now,
	}, nil
}

type unpaidOrderSweepJob struct {
	logg        *logger.Logger
	db          txRunner
	orders      orders.Repository
	outbox      outboxEmitter
	unpaidAfter time.Duration
	batchSize   int
	now         func() time.Time
}

func (j *unpaidOrderSweepJob) Name() string { return "unpaid-order-sweep" }

func (j *unpaidOrderSweepJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	cutoff := now.Add(-j.unpaidAfter)
	stale, err := j.orders.ListUnpaidGatewayOrdersBefore(ctx, cutoff, j.batchSize)
	if err != nil {
		return fmt.Errorf("query unpaid gateway orders: %w", err)
	}

	var errs error
	flagged := 0
	for _, order := range stale {
		if err := j.flag(ctx, order, now); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("flag order %s: %w", order.ID, err))
			continue
		}
		flagged++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":  cutoff,
		"found":   len(stale),
		"flagged": flagged,
	})
	if flagged > 0 {
		j.logg.Warn(logCtx, "gateway orders still unpaid")
	} else {
		j.logg.Info(logCtx, "no stale gateway orders")
	}
	return errs
}

func (j *unpaidOrderSweepJob) flag(ctx context.Context, order models.Order, now time.Time) error {
	return j.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := j.orders.WithTx(tx).Update(ctx, order.ID, map[string]any{"payment_stale_at": now}); err != nil {
			return err
		}
		return j.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPaymentStale,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			OccurredAt:    now,
			Data: payloads.OrderPaymentStaleEvent{
				OrderID:       order.ID,
				UserID:        order.UserID,
				PaymentMethod: order.PaymentMethod,
				PlacedAt:      order.CreatedAt,
				StaleAfter:    j.unpaidAfter.String(),
			},
		})
	})
}

