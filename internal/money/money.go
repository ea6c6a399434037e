// Package money provides an exact monetary value measured in minor units.
package money

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value stored in minor units. The zero value is
// zero. Values are immutable; every operation returns a new Money.
type Money struct {
	amount decimal.Decimal
}

// Zero is the zero amount.
var Zero = Money{}

var hundred = decimal.NewFromInt(100)

// New returns an amount of the given minor units.
func New(minor int64) Money {
	return Money{amount: decimal.NewFromInt(minor)}
}

// FromDecimal wraps an exact minor-unit amount.
func FromDecimal(d decimal.Decimal) Money {
	return Money{amount: d}
}

// Decimal returns the exact minor-unit amount.
func (m Money) Decimal() decimal.Decimal {
	return m.amount
}

// Plus returns m + other.
func (m Money) Plus(other Money) Money {
	return Money{amount: m.amount.Add(other.amount)}
}

// Minus returns m - other.
func (m Money) Minus(other Money) Money {
	return Money{amount: m.amount.Sub(other.amount)}
}

// MultipliedBy returns m scaled by factor without rounding.
func (m Money) MultipliedBy(factor decimal.Decimal) Money {
	return Money{amount: m.amount.Mul(factor)}
}

// Times returns m multiplied by an integer quantity.
func (m Money) Times(qty int) Money {
	return Money{amount: m.amount.Mul(decimal.NewFromInt(int64(qty)))}
}

// ScaleDigits is the number of fractional minor-unit digits ScaledBy keeps.
const ScaleDigits int32 = 16

// ScaledBy returns m * numerator / denominator. The multiplication happens
// first so exact ratios stay exact; a repeating quotient is rounded half away
// from zero at ScaleDigits fractional digits, which is the only rounding
// outside MinorUnits and String. A zero denominator yields Zero.
func (m Money) ScaledBy(numerator, denominator Money) Money {
	if denominator.IsZero() {
		return Zero
	}
	return Money{amount: m.amount.Mul(numerator.amount).DivRound(denominator.amount, ScaleDigits)}
}

// Equal reports value equality.
func (m Money) Equal(other Money) bool {
	return m.amount.Equal(other.amount)
}

// Cmp returns -1, 0 or +1 comparing m with other.
func (m Money) Cmp(other Money) int {
	return m.amount.Cmp(other.amount)
}

// LessThan reports whether m < other.
func (m Money) LessThan(other Money) bool {
	return m.amount.LessThan(other.amount)
}

// IsZero reports whether m is zero.
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsNegative reports whether m < 0.
func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

// IsPositive reports whether m > 0.
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// Min returns the smaller of m and other.
func (m Money) Min(other Money) Money {
	if other.LessThan(m) {
		return other
	}
	return m
}

// MinorUnits rounds half away from zero to whole minor units.
func (m Money) MinorUnits() int64 {
	return m.amount.Round(0).IntPart()
}

// String formats the amount in major units with two decimals, e.g. "20.00".
func (m Money) String() string {
	return m.amount.Div(hundred).StringFixed(2)
}

// MarshalJSON encodes the minor-unit amount as a decimal string.
func (m Money) MarshalJSON() ([]byte, error) {
	return m.amount.MarshalJSON()
}

// UnmarshalJSON decodes a minor-unit amount written by MarshalJSON.
func (m *Money) UnmarshalJSON(data []byte) error {
	return m.amount.UnmarshalJSON(data)
}
