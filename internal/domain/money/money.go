// Package money provides integer-cent monetary arithmetic.
//
// All amounts in the system are carried as whole cents so no operation can
// introduce floating point rounding. Decimal values only appear at tooling
// boundaries (seed fixtures, legacy imports) and are converted on entry.
package money

import "github.com/shopspring/decimal"

// Cents is a monetary amount in whole cents.
type Cents int64

var hundred = decimal.NewFromInt(100)

// Line returns the total for a line item: unit price times quantity.
func Line(unitPrice Cents, qty int) Cents {
	return unitPrice * Cents(qty)
}

// FloorZero clamps a negative amount to zero.
func FloorZero(c Cents) Cents {
	if c < 0 {
		return 0
	}
	return c
}

// FromDecimal converts a decimal currency amount (e.g. "4.50") to cents,
// rounding half away from zero on sub-cent input.
func FromDecimal(d decimal.Decimal) Cents {
	return Cents(d.Mul(hundred).Round(0).IntPart())
}

// Decimal returns the amount as a decimal currency value.
func (c Cents) Decimal() decimal.Decimal {
	return decimal.NewFromInt(int64(c)).Div(hundred)
}

// Int64 returns the raw cent count.
func (c Cents) Int64() int64 {
	return int64(c)
}
