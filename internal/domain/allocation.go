package domain

import "github.com/shopspring/decimal"

// Allocation is a caller-supplied rebalancing target: this percent of the
// (capped) net value should end up in this instrument.
type Allocation struct {
	Symbol   string
	Exchange string
	Percent  decimal.Decimal
}

// PreparedAllocation is an Allocation enriched with the broker contract id
// and live pricing, ready for trade sizing.
type PreparedAllocation struct {
	Allocation
	Conid int64
	Quote Quote
}

// ValidateAllocationSum checks that the target percents sum to exactly
// 100 by absolute value. Anything else is a configuration error, not a
// trading decision.
func ValidateAllocationSum(allocations []Allocation) error {
	sum := decimal.Zero
	for _, a := range allocations {
		sum = sum.Add(a.Percent.Abs())
	}
	if !sum.Equal(oneHundred) {
		return AllocationSumError{Sum: sum}
	}
	return nil
}
