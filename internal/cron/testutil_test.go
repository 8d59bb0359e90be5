package cron

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

var cronNow = time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

func newCronDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:cron_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(models.All()...))
	return conn
}

type orderSeed struct {
	method     enums.PaymentMethod
	status     enums.OrderStatus
	paid       bool
	placedAt   time.Time
	refund     enums.RefundStatus
	paymentRef *string
}

func seedOrder(t *testing.T, conn *gorm.DB, seed orderSeed) models.Order {
	t.Helper()
	if seed.refund == "" {
		seed.refund = enums.RefundStatusNone
	}
	order := models.Order{
		ID:                uuid.New(),
		CheckoutID:        uuid.New(),
		UserID:            uuid.New(),
		StoreID:           uuid.New(),
		AddressID:         uuid.New(),
		Currency:          "inr",
		SubtotalCents:     20000,
		ShippingFeeCents:  5000,
		TotalCents:        25000,
		PaymentMethod:     seed.method,
		Status:            seed.status,
		StatusHistory:     types.NewStatusHistory(seed.status, seed.placedAt),
		IsPaid:            seed.paid,
		GatewayPaymentRef: seed.paymentRef,
		RefundStatus:      seed.refund,
		CreatedAt:         seed.placedAt,
	}
	require.NoError(t, conn.Create(&order).Error)
	return order
}

func reloadOrder(t *testing.T, conn *gorm.DB, id uuid.UUID) models.Order {
	t.Helper()
	var order models.Order
	require.NoError(t, conn.First(&order, "id = ?", id).Error)
	return order
}

func countEvents(t *testing.T, conn *gorm.DB, eventType enums.OutboxEventType) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Where("event_type = ?", eventType).Count(&n).Error)
	return n
}
