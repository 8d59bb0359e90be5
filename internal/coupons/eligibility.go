package coupons

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/money"
)

// Buyer is what eligibility rules look at.
type Buyer struct {
	IsMember  bool
	IsNewUser bool
}

// Check validates expiry and the new-user / member rules.
func Check(coupon *models.Coupon, buyer Buyer, now time.Time) error {
	if coupon == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "coupon not found").
			WithReason(pkgerrors.ReasonCouponInvalid)
	}
	if !now.Before(coupon.ExpiresAt) {
		return pkgerrors.New(pkgerrors.CodeValidation, "coupon expired").
			WithReason(pkgerrors.ReasonCouponInvalid, "code", coupon.Code)
	}
	if coupon.DiscountPercent <= 0 || coupon.DiscountPercent > 100 {
		return pkgerrors.New(pkgerrors.CodeValidation, "coupon misconfigured").
			WithReason(pkgerrors.ReasonCouponInvalid, "code", coupon.Code)
	}
	if coupon.ForNewUser && !buyer.IsNewUser {
		return pkgerrors.New(pkgerrors.CodeForbidden, "coupon is for first orders only").
			WithReason(pkgerrors.ReasonCouponNotEligible, "code", coupon.Code)
	}
	if coupon.ForMember && !buyer.IsMember {
		return pkgerrors.New(pkgerrors.CodeForbidden, "coupon is for members only").
			WithReason(pkgerrors.ReasonCouponNotEligible, "code", coupon.Code)
	}
	return nil
}

// Allocator spreads one coupon over several store subtotals. The percentage
// applies to each subtotal; the optional cap is shared across the checkout and
// consumed in call order.
type Allocator struct {
	percent   int
	remaining int64
	capped    bool
}

func NewAllocator(coupon *models.Coupon) *Allocator {
	if coupon == nil {
		return &Allocator{}
	}
	a := &Allocator{percent: coupon.DiscountPercent}
	if coupon.MaxDiscountCents != nil {
		a.capped = true
		a.remaining = *coupon.MaxDiscountCents
	}
	return a
}

// Discount returns the discount for the next subtotal.
func (a *Allocator) Discount(subtotal int64) int64 {
	if a == nil || a.percent <= 0 || subtotal <= 0 {
		return 0
	}
	d := money.Percent(subtotal, a.percent)
	if d > subtotal {
		d = subtotal
	}
	if a.capped {
		if d > a.remaining {
			d = a.remaining
		}
		a.remaining -= d
	}
	return d
}
