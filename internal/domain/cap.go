package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// CapKind identifies the flavor of a portfolio cap.
type CapKind int

const (
	CapUnlimited CapKind = iota
	CapDollars
	CapPercent
)

// PortfolioCap limits how much of the account's net value the rebalancer
// may invest. Useful for trying out a new allocation with a fraction of
// the portfolio before committing all of it.
type PortfolioCap struct {
	Kind   CapKind
	Amount decimal.Decimal // dollar ceiling or percent fraction, per Kind
}

// ParseCap builds a PortfolioCap from its config representation:
// "" means no cap, "$1500" caps at 1500 dollars, "25%" caps at 25% of
// net value. Anything else is a configuration error.
func ParseCap(s string) (PortfolioCap, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return PortfolioCap{Kind: CapUnlimited}, nil
	case strings.HasPrefix(s, "$"):
		amt, err := ToDecimal(s[1:])
		if err != nil {
			return PortfolioCap{}, fmt.Errorf("domain.ParseCap: dollar cap %q: %w", s, err)
		}
		return PortfolioCap{Kind: CapDollars, Amount: amt}, nil
	case strings.HasSuffix(s, "%"):
		amt, err := ToDecimal(s[:len(s)-1])
		if err != nil {
			return PortfolioCap{}, fmt.Errorf("domain.ParseCap: percent cap %q: %w", s, err)
		}
		return PortfolioCap{Kind: CapPercent, Amount: amt}, nil
	default:
		return PortfolioCap{}, fmt.Errorf("domain.ParseCap: %q must be prefixed with '$' or suffixed with '%%'", s)
	}
}

// Apply returns the net value with the cap applied. A dollar cap is a
// ceiling, never a floor: it can only reduce the investable amount.
func (c PortfolioCap) Apply(netValue decimal.Decimal) decimal.Decimal {
	switch c.Kind {
	case CapDollars:
		if netValue.LessThan(c.Amount) {
			return netValue
		}
		return c.Amount
	case CapPercent:
		return netValue.Mul(c.Amount).Div(decimal.NewFromInt(100))
	default:
		return netValue
	}
}

func (c PortfolioCap) String() string {
	switch c.Kind {
	case CapDollars:
		return "$" + c.Amount.String()
	case CapPercent:
		return c.Amount.String() + "%"
	default:
		return "unlimited"
	}
}
