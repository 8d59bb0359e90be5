package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Order is one buyer/store pair within a checkout. Orders are never deleted.
type Order struct {
	ID                uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	CheckoutID        uuid.UUID             `gorm:"column:checkout_id;type:uuid;not null;index"`
	UserID            uuid.UUID             `gorm:"column:user_id;type:uuid;not null;index"`
	StoreID           uuid.UUID             `gorm:"column:store_id;type:uuid;not null;index"`
	AddressID         uuid.UUID             `gorm:"column:address_id;type:uuid;not null"`
	Currency          string                `gorm:"column:currency;not null;default:'inr'"`
	SubtotalCents     int64                 `gorm:"column:subtotal_cents;not null"`
	ShippingFeeCents  int64                 `gorm:"column:shipping_fee_cents;not null;default:0"`
	DiscountCents     int64                 `gorm:"column:discount_cents;not null;default:0"`
	TotalCents        int64                 `gorm:"column:total_cents;not null"`
	CouponCode        *string               `gorm:"column:coupon_code"`
	PaymentMethod     enums.PaymentMethod   `gorm:"column:payment_method;type:text;not null"`
	Status            enums.OrderStatus     `gorm:"column:status;type:text;not null;index"`
	StatusHistory     types.StatusHistory   `gorm:"column:status_history;type:jsonb;not null"`
	IsPaid            bool                  `gorm:"column:is_paid;not null;default:false"`
	PaidAt            *time.Time            `gorm:"column:paid_at"`
	GatewayOrderRef   *string               `gorm:"column:gateway_order_ref;index"`
	GatewayPaymentRef *string               `gorm:"column:gateway_payment_ref"`
	GatewayData       *types.GatewayPayload `gorm:"column:gateway_data;type:jsonb"`
	DeliveryOTPHash   *string               `gorm:"column:delivery_otp_hash"`
	DeliveryOTPExpiry *time.Time            `gorm:"column:delivery_otp_expiry"`
	OTPVerifyAttempts int                   `gorm:"column:otp_verify_attempts;not null;default:0"`
	OTPResendCount    int                   `gorm:"column:otp_resend_count;not null;default:0"`
	OTPVerified       bool                  `gorm:"column:otp_verified;not null;default:false"`
	DeliveredAt       *time.Time            `gorm:"column:delivered_at"`
	CancelledAt       *time.Time            `gorm:"column:cancelled_at"`
	CancelledBy       *uuid.UUID            `gorm:"column:cancelled_by;type:uuid"`
	RefundStatus      enums.RefundStatus    `gorm:"column:refund_status;type:text;not null;default:'NONE'"`
	RefundRef         *string               `gorm:"column:refund_ref"`
	PaymentStaleAt    *time.Time            `gorm:"column:payment_stale_at"`
	Items             []OrderItem           `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
