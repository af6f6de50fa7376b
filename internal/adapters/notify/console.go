package notify

// console.go — prints the rebalancing plan and order progress to stdout.

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/rebalancer/internal/domain"
)

// Console implements ports.Notifier.
type Console struct {
	out io.Writer
}

// NewConsole creates a notifier that writes to stdout.
func NewConsole() *Console {
	return &Console{out: os.Stdout}
}

// NewConsoleWriter creates a notifier for tests.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w}
}

// NotifyPlan prints the computed trade lists as a table, sells first.
func (c *Console) NotifyPlan(_ context.Context, account string, netValue, cappedValue decimal.Decimal, sells, buys []domain.OrderTicket) error {
	fmt.Fprintf(c.out, "\n=== REBALANCING PLAN — %s ===\n", account)
	fmt.Fprintf(c.out, "  Net value: $%s", netValue.StringFixed(2))
	if !cappedValue.Equal(netValue) {
		fmt.Fprintf(c.out, "  (capped to $%s)", cappedValue.StringFixed(2))
	}
	fmt.Fprintln(c.out)

	if len(sells) == 0 && len(buys) == 0 {
		fmt.Fprintln(c.out, "  No trades necessary.")
		return nil
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Side", "Symbol", "Quantity", "Limit", "Notional")

	n := 0
	for _, list := range [][]domain.OrderTicket{sells, buys} {
		for _, t := range list {
			n++
			table.Append(
				fmt.Sprintf("%d", n),
				string(t.Side),
				t.Symbol,
				t.Quantity.String(),
				"$"+t.Price.StringFixed(2),
				"$"+t.Notional().StringFixed(2),
			)
		}
	}
	table.Render()

	fmt.Fprintf(c.out, "  %d sells, %d buys — sells execute first, proceeds fund buys\n",
		len(sells), len(buys))
	return nil
}

// NotifyOrder prints one lifecycle transition.
func (c *Console) NotifyOrder(_ context.Context, ticket domain.OrderTicket, state domain.OrderState) error {
	now := time.Now().Format("15:04:05")
	fmt.Fprintf(c.out, "[%s] %-9s %s\n", now, state, ticket.Describe())
	return nil
}
