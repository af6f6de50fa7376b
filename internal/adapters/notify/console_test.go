package notify_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/rebalancer/internal/adapters/notify"
	"github.com/alejandrodnm/rebalancer/internal/domain"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestNotifyPlan(t *testing.T) {
	var buf bytes.Buffer
	console := notify.NewConsoleWriter(&buf)

	sells := []domain.OrderTicket{
		{Side: domain.SideSell, Symbol: "GME", Price: dec("20.1"), Quantity: dec("2")},
	}
	buys := []domain.OrderTicket{
		{Side: domain.SideBuy, Symbol: "AAPL", Price: dec("119.5"), Quantity: dec("2.5")},
	}

	err := console.NotifyPlan(context.Background(), "main", dec("12345.67"), dec("5000"), sells, buys)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "REBALANCING PLAN")
	assert.Contains(t, out, "main")
	assert.Contains(t, out, "$12345.67")
	assert.Contains(t, out, "capped to $5000.00")
	assert.Contains(t, out, "GME")
	assert.Contains(t, out, "AAPL")
	assert.Contains(t, out, "$40.20", "sell notional is 2 x 20.1")
	assert.Contains(t, out, "$298.75", "buy notional is 2.5 x 119.5")
	assert.Contains(t, out, "1 sells, 1 buys")
}

func TestNotifyPlanUncapped(t *testing.T) {
	var buf bytes.Buffer
	console := notify.NewConsoleWriter(&buf)

	err := console.NotifyPlan(context.Background(), "main", dec("1000"), dec("1000"), nil, nil)
	require.NoError(t, err)

	out := buf.String()
	assert.NotContains(t, out, "capped", "cap line only shown when the cap binds")
	assert.Contains(t, out, "No trades necessary")
}

func TestNotifyOrder(t *testing.T) {
	var buf bytes.Buffer
	console := notify.NewConsoleWriter(&buf)

	ticket := domain.OrderTicket{
		Side: domain.SideBuy, Symbol: "AAPL", Price: dec("119.5"), Quantity: dec("2.5"),
	}
	err := console.NotifyOrder(context.Background(), ticket, domain.OrderSubmitted)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, string(domain.OrderSubmitted))
	assert.Contains(t, out, "BUY 2.5 of AAPL @ 119.5")
}
