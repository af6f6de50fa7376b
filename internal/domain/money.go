package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ToDecimal parses a numeric string into an exact decimal.
// All money math in the engine goes through shopspring/decimal so that
// repeated runs over the same inputs produce identical trades.
func ToDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("domain.ToDecimal: parse %q: %w", s, err)
	}
	return d, nil
}

// Truncate2 truncates a decimal to two places, toward zero.
// Used for share quantities and percentages: trading fractional dust below
// a hundredth of a share is never worth an order, and truncation (unlike
// rounding) keeps the equal-quantity comparison stable across runs.
func Truncate2(d decimal.Decimal) decimal.Decimal {
	return d.Truncate(2)
}
