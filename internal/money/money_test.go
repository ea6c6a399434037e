package money_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pos-till/internal/money"
)

func TestArithmeticIsExact(t *testing.T) {
	price := money.New(1000)
	vat := price.MultipliedBy(decimal.RequireFromString("0.06")).Times(2)
	require.True(t, vat.Equal(money.New(120)), "got %s", vat.Decimal())

	third := money.New(100).MultipliedBy(decimal.RequireFromString("0.125"))
	require.Equal(t, "12.5", third.Decimal().String())

	require.True(t, money.New(2500).Minus(money.New(2000)).Equal(money.New(500)))
	require.True(t, money.New(2000).Minus(money.New(2500)).IsNegative())
	require.True(t, money.Zero.Plus(money.New(7)).Equal(money.New(7)))
}

func TestOperationsDoNotMutateReceiver(t *testing.T) {
	base := money.New(1000)
	_ = base.Plus(money.New(1))
	_ = base.Times(3)
	require.True(t, base.Equal(money.New(1000)))
}

func TestScaledBy(t *testing.T) {
	vat := money.New(120).ScaledBy(money.New(1800), money.New(2000))
	require.True(t, vat.Equal(money.New(108)))
	require.True(t, money.New(120).ScaledBy(money.New(5), money.Zero).IsZero())
}

func TestScaledByRoundsRepeatingRatioAtScaleDigits(t *testing.T) {
	vat := money.New(100).ScaledBy(money.New(200), money.New(300))
	require.Equal(t, "66.6666666666666667", vat.Decimal().String())
	require.Equal(t, int64(67), vat.MinorUnits())

	down := money.New(100).ScaledBy(money.New(100), money.New(300))
	require.Equal(t, "33.3333333333333333", down.Decimal().String())
	require.Equal(t, int64(33), down.MinorUnits())
}

func TestComparisons(t *testing.T) {
	a, b := money.New(10), money.New(20)
	require.True(t, a.LessThan(b))
	require.Equal(t, -1, a.Cmp(b))
	require.True(t, b.Min(a).Equal(a))
	require.True(t, a.Min(b).Equal(a))
	require.True(t, money.Zero.IsZero())
}

func TestMinorUnitsAndString(t *testing.T) {
	m := money.FromDecimal(decimal.RequireFromString("107.5"))
	require.Equal(t, int64(108), m.MinorUnits())
	require.Equal(t, "20.00", money.New(2000).String())
	require.Equal(t, "-5.00", money.New(-500).String())
}

func TestJSONRoundTripKeepsFraction(t *testing.T) {
	in := money.FromDecimal(decimal.RequireFromString("12.5"))
	raw, err := json.Marshal(in)
	require.NoError(t, err)

	var out money.Money
	require.NoError(t, json.Unmarshal(raw, &out))
	require.True(t, in.Equal(out))
}
