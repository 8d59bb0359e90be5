package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/money"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

type placeOrderItem struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,min=1,max=1000"`
}

type placeOrderRequest struct {
	Items         []placeOrderItem `json:"items" validate:"required,min=1,dive"`
	AddressID     string           `json:"addressId" validate:"required,uuid"`
	PaymentMethod string           `json:"paymentMethod" validate:"required"`
	CouponCode    *string          `json:"couponCode,omitempty" validate:"omitempty,max=64"`
}

type orderIDRequest struct {
	OrderID string `json:"orderId" validate:"required,uuid"`
}

type verifyOTPRequest struct {
	OrderID string `json:"orderId" validate:"required,uuid"`
	OTP     string `json:"otp" validate:"required,max=32"`
}

type updateStatusRequest struct {
	OrderID string `json:"orderId" validate:"required,uuid"`
	Status  string `json:"status" validate:"required"`
}

type razorpayHandoff struct {
	OrderID  string `json:"orderId"`
	KeyID    string `json:"keyId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// PlaceOrderResponse is returned by POST /api/v1/order.
type PlaceOrderResponse struct {
	CheckoutID  uuid.UUID        `json:"checkoutId"`
	OrderIDs    []uuid.UUID      `json:"orderIds"`
	Total       string           `json:"total"`
	TotalCents  int64            `json:"totalCents"`
	Currency    string           `json:"currency"`
	RedirectURL *string          `json:"redirectUrl,omitempty"`
	Razorpay    *razorpayHandoff `json:"razorpay,omitempty"`
}

func newPlaceOrderResponse(result *checkout.PlaceOrderResult) PlaceOrderResponse {
	resp := PlaceOrderResponse{
		CheckoutID:  result.CheckoutID,
		OrderIDs:    result.OrderIDs,
		Total:       money.FromMinor(result.TotalCents).StringFixed(2),
		TotalCents:  result.TotalCents,
		Currency:    result.Currency,
		RedirectURL: result.RedirectURL,
	}
	if result.Razorpay != nil {
		resp.Razorpay = &razorpayHandoff{
			OrderID:  result.Razorpay.OrderID,
			KeyID:    result.Razorpay.KeyID,
			Amount:   result.Razorpay.AmountMinor,
			Currency: result.Razorpay.Currency,
		}
	}
	return resp
}

// OrderItemResponse is a purchased line.
type OrderItemResponse struct {
	ProductID  uuid.UUID `json:"productId"`
	Name       string    `json:"name"`
	Quantity   int       `json:"quantity"`
	PriceCents int64     `json:"priceCents"`
}

// OrderResponse is the public order view. Delivery code material is never
// exposed.
type OrderResponse struct {
	ID                uuid.UUID           `json:"id"`
	CheckoutID        uuid.UUID           `json:"checkoutId"`
	UserID            uuid.UUID           `json:"userId"`
	StoreID           uuid.UUID           `json:"storeId"`
	Status            enums.OrderStatus   `json:"status"`
	StatusHistory     types.StatusHistory `json:"statusHistory"`
	PaymentMethod     enums.PaymentMethod `json:"paymentMethod"`
	IsPaid            bool                `json:"isPaid"`
	PaidAt            *time.Time          `json:"paidAt,omitempty"`
	Currency          string              `json:"currency"`
	SubtotalCents     int64               `json:"subtotalCents"`
	ShippingFeeCents  int64               `json:"shippingFeeCents"`
	DiscountCents     int64               `json:"discountCents"`
	TotalCents        int64               `json:"totalCents"`
	Total             string              `json:"total"`
	CouponCode        *string             `json:"couponCode,omitempty"`
	RefundStatus      enums.RefundStatus  `json:"refundStatus"`
	OTPExpiresAt      *time.Time          `json:"otpExpiresAt,omitempty"`
	OTPResendCount    int                 `json:"otpResendCount"`
	OTPVerified       bool                `json:"otpVerified"`
	DeliveredAt       *time.Time          `json:"deliveredAt,omitempty"`
	CancelledAt       *time.Time          `json:"cancelledAt,omitempty"`
	Items             []OrderItemResponse `json:"items,omitempty"`
	CreatedAt         time.Time           `json:"createdAt"`
	UpdatedAt         time.Time           `json:"updatedAt"`
}

func newOrderResponse(order *models.Order) OrderResponse {
	resp := OrderResponse{
		ID:               order.ID,
		CheckoutID:       order.CheckoutID,
		UserID:           order.UserID,
		StoreID:          order.StoreID,
		Status:           order.Status,
		StatusHistory:    order.StatusHistory,
		PaymentMethod:    order.PaymentMethod,
		IsPaid:           order.IsPaid,
		PaidAt:           order.PaidAt,
		Currency:         order.Currency,
		SubtotalCents:    order.SubtotalCents,
		ShippingFeeCents: order.ShippingFeeCents,
		DiscountCents:    order.DiscountCents,
		TotalCents:       order.TotalCents,
		Total:            money.FromMinor(order.TotalCents).StringFixed(2),
		CouponCode:       order.CouponCode,
		RefundStatus:     order.RefundStatus,
		OTPExpiresAt:     order.DeliveryOTPExpiry,
		OTPResendCount:   order.OTPResendCount,
		OTPVerified:      order.OTPVerified,
		DeliveredAt:      order.DeliveredAt,
		CancelledAt:      order.CancelledAt,
		CreatedAt:        order.CreatedAt,
		UpdatedAt:        order.UpdatedAt,
	}
	for _, item := range order.Items {
		resp.Items = append(resp.Items, OrderItemResponse{
			ProductID:  item.ProductID,
			Name:       item.Name,
			Quantity:   item.Quantity,
			PriceCents: item.PriceCents,
		})
	}
	return resp
}
