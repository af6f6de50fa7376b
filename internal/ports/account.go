package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/rebalancer/internal/domain"
)

// AccountService reads account-level state from the broker.
type AccountService interface {
	// SwitchAccount selects the account all subsequent calls operate on.
	SwitchAccount(ctx context.Context, accountID string) error

	// NetValue returns the account's net liquidation value in USD.
	NetValue(ctx context.Context) (decimal.Decimal, error)

	// Positions returns the current holdings, without pricing attached.
	Positions(ctx context.Context) ([]domain.Position, error)
}
