package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/rebalancer/internal/domain"
)

// Notifier presents run progress to the user.
type Notifier interface {
	// NotifyPlan shows the computed trade lists before execution.
	// The console implementation prints a formatted table.
	NotifyPlan(ctx context.Context, account string, netValue, cappedValue decimal.Decimal, sells, buys []domain.OrderTicket) error

	// NotifyOrder reports one order reaching a lifecycle stage.
	NotifyOrder(ctx context.Context, ticket domain.OrderTicket, state domain.OrderState) error
}
