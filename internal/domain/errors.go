package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// AllocationSumError means the configured target percents don't add up to
// exactly 100 (by absolute value). Raised before any network call.
type AllocationSumError struct {
	Sum decimal.Decimal
}

func (e AllocationSumError) Error() string {
	return fmt.Sprintf("allocations do not sum to 100: %s", e.Sum)
}

// SymbolResolutionError means no unique contract matched a target symbol
// on its configured exchange.
type SymbolResolutionError struct {
	Symbol   string
	Exchange string
}

func (e SymbolResolutionError) Error() string {
	return fmt.Sprintf("unable to find conid for %s on %s", e.Symbol, e.Exchange)
}

// PricingUnavailableError means the market-data snapshot stayed empty or
// incomplete for the whole retry budget.
type PricingUnavailableError struct {
	Symbol   string
	Attempts int
}

func (e PricingUnavailableError) Error() string {
	return fmt.Sprintf("unable to find bid/ask spread for %s after %d attempts", e.Symbol, e.Attempts)
}

// OrderSubmitError is a non-ok submit response. Fatal for the run; orders
// already driven to completion are not reversed.
type OrderSubmitError struct {
	Order      string
	StatusCode int
	Body       string
}

func (e OrderSubmitError) Error() string {
	return fmt.Sprintf("failed to submit order: %s status_code=%d body=%s", e.Order, e.StatusCode, e.Body)
}

// OrderConfirmError is a non-ok confirmation response. Fatal for the run.
type OrderConfirmError struct {
	Order      string
	StatusCode int
	Body       string
}

func (e OrderConfirmError) Error() string {
	return fmt.Sprintf("failed to confirm order: %s status_code=%d body=%s", e.Order, e.StatusCode, e.Body)
}
