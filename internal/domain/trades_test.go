package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func position(symbol string, qty, last, bid, ask string) Position {
	return Position{
		Conid:    int64(len(symbol)), // any stable id
		Symbol:   symbol,
		Exchange: "NASDAQ",
		Quantity: dec(qty),
		Quote:    Quote{LastPrice: dec(last), Bid: dec(bid), Ask: dec(ask)},
	}
}

func target(symbol, percent, last, bid, ask string) PreparedAllocation {
	return PreparedAllocation{
		Allocation: Allocation{Symbol: symbol, Exchange: "NASDAQ", Percent: dec(percent)},
		Conid:      int64(len(symbol)),
		Quote:      Quote{LastPrice: dec(last), Bid: dec(bid), Ask: dec(ask)},
	}
}

func TestCalculateTrades_BalancedPortfolioNoTrades(t *testing.T) {
	// qty=10, target 50% of 1000 at last=50 → target qty 10 → nothing to do.
	positions := []Position{position("AAPL", "10", "50", "49.9", "50.1")}
	prepared := []PreparedAllocation{
		target("AAPL", "50", "50", "49.9", "50.1"),
		target("MSFT", "50", "100", "99.9", "100.1"),
	}

	sells, buys := CalculateTrades(positions, prepared, dec("1000"))
	assert.Empty(t, sells)
	require.Len(t, buys, 1)
	assert.Equal(t, "MSFT", buys[0].Symbol)
}

func TestCalculateTrades_BuysUnderweightAtBid(t *testing.T) {
	// Same setup but last=40: target qty = 1000*50/100/40 = 12.5 → buy 2.5.
	positions := []Position{position("AAPL", "10", "40", "39.9", "40.1")}
	prepared := []PreparedAllocation{target("AAPL", "50", "40", "39.9", "40.1")}

	// Only 50% allocated: pad with a second target to keep the sum at 100.
	prepared = append(prepared, target("CASHX", "50", "1", "1", "1"))

	sells, buys := CalculateTrades(positions, prepared, dec("1000"))
	assert.Empty(t, sells)
	require.Len(t, buys, 2)

	var aapl OrderTicket
	for _, b := range buys {
		if b.Symbol == "AAPL" {
			aapl = b
		}
	}
	assert.Equal(t, SideBuy, aapl.Side)
	assert.True(t, aapl.Quantity.Equal(dec("2.5")), "got %s", aapl.Quantity)
	assert.True(t, aapl.Price.Equal(dec("39.9")), "buys price at bid, got %s", aapl.Price)
}

func TestCalculateTrades_SellsOverweightAtAsk(t *testing.T) {
	positions := []Position{position("AAPL", "20", "50", "49.9", "50.1")}
	prepared := []PreparedAllocation{target("AAPL", "100", "50", "49.9", "50.1")}

	// target qty = 500*100/100/50 = 10 → sell 10 at ask.
	sells, buys := CalculateTrades(positions, prepared, dec("500"))
	assert.Empty(t, buys)
	require.Len(t, sells, 1)
	assert.Equal(t, SideSell, sells[0].Side)
	assert.True(t, sells[0].Quantity.Equal(dec("10")))
	assert.True(t, sells[0].Price.Equal(dec("50.1")))
}

func TestCalculateTrades_LiquidatesDrift(t *testing.T) {
	// GME is held but not targeted: full-quantity sell regardless of weight.
	positions := []Position{
		position("GME", "3.25", "20", "19.9", "20.1"),
		position("AAPL", "10", "50", "49.9", "50.1"),
	}
	prepared := []PreparedAllocation{target("AAPL", "100", "50", "49.9", "50.1")}

	sells, _ := CalculateTrades(positions, prepared, dec("500"))

	var gme *OrderTicket
	for i := range sells {
		if sells[i].Symbol == "GME" {
			gme = &sells[i]
		}
	}
	require.NotNil(t, gme, "drifted holding must be sold")
	assert.True(t, gme.Quantity.Equal(dec("3.25")), "full quantity, got %s", gme.Quantity)
	assert.True(t, gme.Price.Equal(dec("20.1")))
}

func TestCalculateTrades_ZeroNetValueLiquidatesEverything(t *testing.T) {
	positions := []Position{
		position("AAPL", "10", "50", "49.9", "50.1"),
		position("MSFT", "5", "100", "99.9", "100.1"),
	}
	prepared := []PreparedAllocation{
		target("AAPL", "50", "50", "49.9", "50.1"),
		target("MSFT", "50", "100", "99.9", "100.1"),
	}

	sells, buys := CalculateTrades(positions, prepared, dec("0"))
	assert.Empty(t, buys)
	require.Len(t, sells, 2)
	for _, s := range sells {
		assert.Equal(t, SideSell, s.Side)
	}
}

func TestCalculateTrades_SortedByNotionalDescending(t *testing.T) {
	prepared := []PreparedAllocation{
		target("AAA", "10", "10", "9.9", "10.1"),
		target("BBBB", "60", "10", "9.9", "10.1"),
		target("CC", "30", "10", "9.9", "10.1"),
	}

	_, buys := CalculateTrades(nil, prepared, dec("1000"))
	require.Len(t, buys, 3)
	for i := 1; i < len(buys); i++ {
		prev, cur := buys[i-1].Notional(), buys[i].Notional()
		assert.True(t, prev.GreaterThanOrEqual(cur),
			"buys not sorted: %s before %s", prev, cur)
	}
	assert.Equal(t, "BBBB", buys[0].Symbol)
}

func TestCalculateTrades_SubCentDriftIgnored(t *testing.T) {
	// Delta below 0.01 shares truncates to zero: no ticket.
	positions := []Position{position("AAPL", "10.001", "50", "49.9", "50.1")}
	prepared := []PreparedAllocation{target("AAPL", "100", "50", "49.9", "50.1")}

	sells, buys := CalculateTrades(positions, prepared, dec("500"))
	assert.Empty(t, sells)
	assert.Empty(t, buys)
}

func TestValidateAllocationSum(t *testing.T) {
	ok := []Allocation{
		{Symbol: "AAPL", Percent: dec("60")},
		{Symbol: "MSFT", Percent: dec("40")},
	}
	assert.NoError(t, ValidateAllocationSum(ok))

	bad := []Allocation{
		{Symbol: "AAPL", Percent: dec("60")},
		{Symbol: "MSFT", Percent: dec("39.99")},
	}
	err := ValidateAllocationSum(bad)
	require.Error(t, err)
	var sumErr AllocationSumError
	require.ErrorAs(t, err, &sumErr)
	assert.True(t, sumErr.Sum.Equal(dec("99.99")))

	// Absolute values: a short leg still counts toward the sum.
	short := []Allocation{
		{Symbol: "AAPL", Percent: dec("150")},
		{Symbol: "SQQQ", Percent: dec("-50")},
	}
	assert.NoError(t, ValidateAllocationSum(short))
}
