// Package money normalises currency amounts to the fixed-point shape the
// store columns use (NUMERIC(p,2)).
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits kept for every amount.
const Scale = 2

const (
	// PricePrecision matches products.price NUMERIC(10,2).
	PricePrecision = 10
	// AmountPrecision matches the NUMERIC(19,2) order and item columns.
	AmountPrecision = 19
)

var (
	ErrNegative   = errors.New("amount must not be negative")
	ErrOutOfRange = errors.New("amount exceeds column precision")
)

// Normalize rounds d half away from zero to Scale digits, the way a
// NUMERIC(p,2) column coerces its input, and rejects negative amounts and
// amounts with more than precision-Scale integer digits.
func Normalize(d decimal.Decimal, precision int32) (decimal.Decimal, error) {
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrNegative, d.String())
	}
	r := d.Round(Scale)
	if r.GreaterThanOrEqual(decimal.New(1, precision-Scale)) {
		return decimal.Zero, fmt.Errorf("%w: %s (precision %d)", ErrOutOfRange, d.String(), precision)
	}
	return r, nil
}

// Text renders d with exactly Scale fractional digits, the form the store
// receives amounts in.
func Text(d decimal.Decimal) string {
	return d.StringFixed(Scale)
}
