package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLine(t *testing.T) {
	assert.Equal(t, Cents(1200), Line(400, 3))
	assert.Equal(t, Cents(0), Line(0, 5))
}

func TestFloorZero(t *testing.T) {
	assert.Equal(t, Cents(0), FloorZero(-50))
	assert.Equal(t, Cents(0), FloorZero(0))
	assert.Equal(t, Cents(50), FloorZero(50))
}

func TestFromDecimal(t *testing.T) {
	assert.Equal(t, Cents(450), FromDecimal(decimal.RequireFromString("4.50")))
	assert.Equal(t, Cents(400), FromDecimal(decimal.RequireFromString("4")))
	// Sub-cent input rounds half away from zero.
	assert.Equal(t, Cents(451), FromDecimal(decimal.RequireFromString("4.505")))
}

func TestDecimalRoundTrip(t *testing.T) {
	c := Cents(1450)
	assert.True(t, decimal.RequireFromString("14.50").Equal(c.Decimal()))
	assert.Equal(t, int64(1450), c.Int64())
}
