package checkout

import (
	"github.com/angelmondragon/storefront-backend/internal/checkout/helpers"
	"github.com/angelmondragon/storefront-backend/internal/coupons"
)

// OrderTotals is the priced form of one store group.
type OrderTotals struct {
	Group            helpers.StoreGroup
	ShippingFeeCents int64
	DiscountCents    int64
	TotalCents       int64
}

// PriceGroups applies the flat shipping fee once per checkout, on the first
// group, unless waived, and spreads the coupon over the groups.
func PriceGroups(groups []helpers.StoreGroup, shippingFeeCents int64, waiveShipping bool, alloc *coupons.Allocator) []OrderTotals {
	out := make([]OrderTotals, 0, len(groups))
	for i, group := range groups {
		totals := OrderTotals{Group: group}
		if i == 0 && !waiveShipping && shippingFeeCents > 0 {
			totals.ShippingFeeCents = shippingFeeCents
		}
		totals.DiscountCents = alloc.Discount(group.SubtotalCents)
		totals.TotalCents = group.SubtotalCents + totals.ShippingFeeCents - totals.DiscountCents
		if totals.TotalCents < 0 {
			totals.TotalCents = 0
		}
		out = append(out, totals)
	}
	return out
}

// GrandTotal sums the order totals of one checkout.
func GrandTotal(priced []OrderTotals) int64 {
	var sum int64
	for _, p := range priced {
		sum += p.TotalCents
	}
	return sum
}
