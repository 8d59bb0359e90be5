package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	require.Equal(t, "250.00 INR", Format(25000, "inr"))
	require.Equal(t, "0.05 USD", Format(5, "usd"))
	require.Equal(t, "2.5", FromMinor(250).String())
}

func TestToMinor(t *testing.T) {
	got, err := ToMinor(decimal.RequireFromString("12.34"))
	require.NoError(t, err)
	require.EqualValues(t, 1234, got)

	_, err = ToMinor(decimal.RequireFromString("1.005"))
	require.Error(t, err)
}

func TestPercent(t *testing.T) {
	require.EqualValues(t, 2000, Percent(20000, 10))
	require.EqualValues(t, 17, Percent(333, 5))
	require.Zero(t, Percent(0, 50))
	require.Zero(t, Percent(100, 0))
}
