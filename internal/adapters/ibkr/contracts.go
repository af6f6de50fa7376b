package ibkr

// contracts.go — implements ports.ContractResolver via the trsrv/stocks
// symbol lookup, filtered by listing exchange.

import (
	"context"
	"fmt"
	"net/url"

	"github.com/alejandrodnm/rebalancer/internal/domain"
)

type stockContract struct {
	Conid    int64  `json:"conid"`
	Exchange string `json:"exchange"`
	IsUS     bool   `json:"isUS"`
}

type stockInstrument struct {
	Name      string          `json:"name"`
	Contracts []stockContract `json:"contracts"`
}

// ResolveConid returns the contract id of symbol on the given exchange.
// The lookup can return several instruments per symbol (cross-listings,
// similarly named contracts); only a contract on the requested exchange
// counts as a match.
func (c *Client) ResolveConid(ctx context.Context, symbol, exchange string) (int64, error) {
	query := url.Values{"symbols": {symbol}}
	var result map[string][]stockInstrument
	if err := c.get(ctx, "/trsrv/stocks", query, &result); err != nil {
		return 0, fmt.Errorf("ibkr.ResolveConid: %s: %w", symbol, err)
	}

	for _, instrument := range result[symbol] {
		for _, contract := range instrument.Contracts {
			if contract.Exchange == exchange {
				return contract.Conid, nil
			}
		}
	}
	return 0, domain.SymbolResolutionError{Symbol: symbol, Exchange: exchange}
}
