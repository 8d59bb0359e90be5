package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// OrderCreatedEvent summarizes one checkout split across stores.
type OrderCreatedEvent struct {
	CheckoutID    uuid.UUID           `json:"checkoutId"`
	UserID        uuid.UUID           `json:"userId"`
	OrderIDs      []uuid.UUID         `json:"orderIds"`
	PaymentMethod enums.PaymentMethod `json:"paymentMethod"`
	TotalCents    int64               `json:"totalCents"`
	Currency      string              `json:"currency"`
	CouponCode    *string             `json:"couponCode,omitempty"`
}

// OrderCanceledEvent is emitted when the buyer or the store owner cancels.
type OrderCanceledEvent struct {
	OrderID      uuid.UUID          `json:"orderId"`
	UserID       uuid.UUID          `json:"userId"`
	StoreID      uuid.UUID          `json:"storeId"`
	CancelledBy  uuid.UUID          `json:"cancelledBy"`
	CancelledAt  time.Time          `json:"cancelledAt"`
	WasPaid      bool               `json:"wasPaid"`
	RefundStatus enums.RefundStatus `json:"refundStatus"`
}

// OrderPaidEvent is emitted on the first successful settlement of an order.
type OrderPaidEvent struct {
	OrderID    uuid.UUID            `json:"orderId"`
	UserID     uuid.UUID            `json:"userId"`
	StoreID    uuid.UUID            `json:"storeId"`
	Gateway    enums.PaymentGateway `json:"gateway"`
	PaymentRef string               `json:"paymentRef,omitempty"`
	TotalCents int64                `json:"totalCents"`
	PaidAt     time.Time            `json:"paidAt"`
}

// PaymentFailedEvent reports a gateway failure. The order stays open.
type PaymentFailedEvent struct {
	OrderID uuid.UUID            `json:"orderId"`
	UserID  uuid.UUID            `json:"userId"`
	StoreID uuid.UUID            `json:"storeId"`
	Gateway enums.PaymentGateway `json:"gateway"`
	EventID string               `json:"eventId"`
}

// OrderStatusChangedEvent covers every forward transition.
type OrderStatusChangedEvent struct {
	OrderID   uuid.UUID         `json:"orderId"`
	StoreID   uuid.UUID         `json:"storeId"`
	From      enums.OrderStatus `json:"from"`
	To        enums.OrderStatus `json:"to"`
	ChangedAt time.Time         `json:"changedAt"`
}

// OrderDeliveredEvent is emitted after a successful delivery code check.
type OrderDeliveredEvent struct {
	OrderID     uuid.UUID `json:"orderId"`
	UserID      uuid.UUID `json:"userId"`
	StoreID     uuid.UUID `json:"storeId"`
	DeliveredAt time.Time `json:"deliveredAt"`
}

// OrderPaymentStaleEvent flags a gateway order that was never paid.
type OrderPaymentStaleEvent struct {
	OrderID       uuid.UUID           `json:"orderId"`
	UserID        uuid.UUID           `json:"userId"`
	PaymentMethod enums.PaymentMethod `json:"paymentMethod"`
	PlacedAt      time.Time           `json:"placedAt"`
	StaleAfter    string              `json:"staleAfter"`
}

// RefundSettledEvent reports the outcome of a refund attempt.
type RefundSettledEvent struct {
	OrderID     uuid.UUID            `json:"orderId"`
	Gateway     enums.PaymentGateway `json:"gateway"`
	Status      enums.RefundStatus   `json:"status"`
	RefundRef   string               `json:"refundRef,omitempty"`
	AmountCents int64                `json:"amountCents"`
}
