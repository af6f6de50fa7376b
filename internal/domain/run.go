package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RunRecord is the audit summary of one rebalancing run.
type RunRecord struct {
	ID          string
	AccountID   string
	AccountName string
	DryRun      bool
	NetValue    decimal.Decimal
	CappedValue decimal.Decimal
	Sells       int
	Buys        int
	Status      string // "completed" or "aborted"
	StartedAt   time.Time
	FinishedAt  time.Time
}

// OrderRecord is the audit trail of one driven order within a run.
type OrderRecord struct {
	OrderID   string
	ClientRef string
	Side      Side
	Symbol    string
	Quantity  decimal.Decimal
	Price     decimal.Decimal // final limit price, after any reprices
	Reprices  int
	State     OrderState
	PlacedAt  time.Time
}
