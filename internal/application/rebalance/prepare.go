package rebalance

// prepare.go — turns configured allocations into sized-and-priced targets.
//
// Order matters: the percent sum is validated before any network call, so
// a misconfigured target list fails fast without burning API quota.

import (
	"context"
	"log/slog"

	"github.com/alejandrodnm/rebalancer/internal/domain"
	"github.com/alejandrodnm/rebalancer/internal/ports"
)

// Preparer resolves and prices target allocations, memoizing conids for
// the run.
type Preparer struct {
	resolver ports.ContractResolver
	quotes   *Quotes
	conids   map[string]int64
}

// NewPreparer creates a Preparer with an empty per-run conid cache.
func NewPreparer(resolver ports.ContractResolver, quotes *Quotes) *Preparer {
	return &Preparer{
		resolver: resolver,
		quotes:   quotes,
		conids:   make(map[string]int64),
	}
}

// Prepare validates the allocation set and enriches every entry with its
// conid and a live quote.
func (p *Preparer) Prepare(ctx context.Context, allocations []domain.Allocation) ([]domain.PreparedAllocation, error) {
	if err := domain.ValidateAllocationSum(allocations); err != nil {
		return nil, err
	}

	prepared := make([]domain.PreparedAllocation, 0, len(allocations))
	for _, a := range allocations {
		conid, err := p.resolveConid(ctx, a.Symbol, a.Exchange)
		if err != nil {
			return nil, err
		}
		quote, err := p.quotes.Get(ctx, conid, a.Exchange, a.Symbol)
		if err != nil {
			return nil, err
		}
		prepared = append(prepared, domain.PreparedAllocation{
			Allocation: a,
			Conid:      conid,
			Quote:      quote,
		})
		slog.Debug("rebalance: allocation prepared",
			"symbol", a.Symbol, "percent", a.Percent, "conid", conid, "last", quote.LastPrice)
	}
	return prepared, nil
}

func (p *Preparer) resolveConid(ctx context.Context, symbol, exchange string) (int64, error) {
	if conid, ok := p.conids[symbol]; ok {
		return conid, nil
	}
	conid, err := p.resolver.ResolveConid(ctx, symbol, exchange)
	if err != nil {
		return 0, err
	}
	p.conids[symbol] = conid
	return conid, nil
}
