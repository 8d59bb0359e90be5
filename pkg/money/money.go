package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const minorExponent = 2

// FromMinor renders integer minor units as a two-place decimal.
func FromMinor(minor int64) decimal.Decimal {
	return decimal.New(minor, -minorExponent)
}

// Format renders minor units for display, e.g. 25000 inr -> "250.00 INR".
func Format(minor int64, currency string) string {
	return fmt.Sprintf("%s %s", FromMinor(minor).StringFixed(minorExponent), strings.ToUpper(currency))
}

// ToMinor converts a decimal amount to minor units, rejecting sub-minor
// precision.
func ToMinor(amount decimal.Decimal) (int64, error) {
	scaled := amount.Shift(minorExponent)
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, fmt.Errorf("amount %s has more than %d decimal places", amount, minorExponent)
	}
	return scaled.IntPart(), nil
}

// Percent returns pct percent of minor, rounded half-up to a whole minor unit.
func Percent(minor int64, pct int) int64 {
	if minor <= 0 || pct <= 0 {
		return 0
	}
	return decimal.NewFromInt(minor).
		Mul(decimal.NewFromInt(int64(pct))).
		Div(decimal.NewFromInt(100)).
		Round(0).
		IntPart()
}
