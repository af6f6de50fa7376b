package domain

// trades.go — the rebalancing trade calculator.
//
// Pure arithmetic over snapshots: current positions, prepared allocations
// and the capped net value in, ordered sell and buy tickets out. No I/O,
// no floats.

import (
	"sort"

	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// CalculateTrades diffs the current holdings against the target
// allocations and returns the tickets needed to close the gap.
//
// Sells come in two flavors: full liquidation of holdings that are no
// longer targeted, and partial trims of overweight targets. Buys are sized
// against the capped net value; with a zero net value every target
// quantity is zero and the result is a pure liquidation.
//
// Both lists are ordered by descending notional so the most
// capital-significant trades execute first if the run is interrupted.
func CalculateTrades(positions []Position, prepared []PreparedAllocation, cappedNet decimal.Decimal) (sells, buys []OrderTicket) {
	targeted := make(map[string]bool, len(prepared))
	for _, a := range prepared {
		targeted[a.Symbol] = true
	}

	// Holdings that drifted out of the target set are sold in full.
	for _, p := range positions {
		if targeted[p.Symbol] {
			continue
		}
		sells = append(sells, OrderTicket{
			Side:     SideSell,
			Conid:    p.Conid,
			Symbol:   p.Symbol,
			Exchange: p.Exchange,
			Price:    p.Quote.Ask,
			Quantity: p.Quantity,
		})
	}

	bySymbol := make(map[string]Position, len(positions))
	for _, p := range positions {
		bySymbol[p.Symbol] = p
	}

	for _, a := range prepared {
		currentQty := decimal.Zero
		if p, ok := bySymbol[a.Symbol]; ok {
			currentQty = p.Quantity
		}

		targetQty := cappedNet.Mul(a.Percent).Div(oneHundred).Div(a.Quote.LastPrice)
		delta := Truncate2(targetQty.Sub(currentQty).Abs())
		if delta.IsZero() {
			// Sub-hundredth drift truncates away; a zero-quantity
			// ticket would only bounce off the broker.
			continue
		}

		switch {
		case currentQty.GreaterThan(targetQty):
			sells = append(sells, OrderTicket{
				Side:     SideSell,
				Conid:    a.Conid,
				Symbol:   a.Symbol,
				Exchange: a.Exchange,
				Price:    a.Quote.Ask,
				Quantity: delta,
			})
		case currentQty.LessThan(targetQty):
			buys = append(buys, OrderTicket{
				Side:     SideBuy,
				Conid:    a.Conid,
				Symbol:   a.Symbol,
				Exchange: a.Exchange,
				Price:    a.Quote.Bid,
				Quantity: delta,
			})
		}
	}

	sortByNotional(sells)
	sortByNotional(buys)
	return sells, buys
}

func sortByNotional(tickets []OrderTicket) {
	sort.SliceStable(tickets, func(i, j int) bool {
		return tickets[i].Notional().GreaterThan(tickets[j].Notional())
	})
}
