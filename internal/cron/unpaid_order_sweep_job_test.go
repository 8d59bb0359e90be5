package cron

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
)

func TestUnpaidOrderSweepFlagsEachOrderOnce(t *testing.T) {
	conn := newCronDB(t)
	old := cronNow.Add(-30 * time.Hour)

	stale := seedOrder(t, conn, orderSeed{method: enums.PaymentMethodRazorpay, status: enums.OrderStatusPlaced, placedAt: old})
	fresh := seedOrder(t, conn, orderSeed{method: enums.PaymentMethodStripe, status: enums.OrderStatusPlaced, placedAt: cronNow.Add(-time.Hour)})
	cod := seedOrder(t, conn, orderSeed{method: enums.PaymentMethodCOD, status: enums.OrderStatusPlaced, placedAt: old})
	paid := seedOrder(t, conn, orderSeed{method: enums.PaymentMethodStripe, status: enums.OrderStatusPlaced, paid: true, placedAt: old})

	jobIface, err := NewUnpaidOrderSweepJob(UnpaidOrderSweepJobParams{
		Logger: logger.Nop(),
		DB:     db.NewFromConn(conn),
		Orders: orders.NewRepository(conn),
		Outbox: outbox.NewService(outbox.NewRepository(conn), logger.Nop()),
	})
	require.NoError(t, err)
	job := jobIface.(*unpaidOrderSweepJob)
	job.now = func() time.Time { return cronNow }

	ctx := context.Background()
	require.NoError(t, job.Run(ctx))
	require.NoError(t, job.Run(ctx))

	require.EqualValues(t, 1, countEvents(t, conn, enums.EventOrderPaymentStale))
	flagged := reloadOrder(t, conn, stale.ID)
	require.NotNil(t, flagged.PaymentStaleAt)
	require.Equal(t, enums.OrderStatusPlaced, flagged.Status, "sweep never cancels")

	require.Nil(t, reloadOrder(t, conn, fresh.ID).PaymentStaleAt)
	require.Nil(t, reloadOrder(t, conn, cod.ID).PaymentStaleAt)
	require.Nil(t, reloadOrder(t, conn, paid.ID).PaymentStaleAt)
}
