package rebalance

// pricing.go — per-run quote fetching and caching.
//
// The snapshot endpoint warms up lazily: first reads frequently come back
// empty or with blank fields, so fetches retry in a bounded loop. Results
// are cached for the rest of the run keyed by conid@exchange, which keeps
// every sizing decision in one pass on the same prices.

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alejandrodnm/rebalancer/internal/domain"
	"github.com/alejandrodnm/rebalancer/internal/ports"
)

const (
	defaultPricingAttempts = 10
	defaultPricingBackoff  = time.Second
)

// Quotes owns the run-scoped pricing cache. Not safe for concurrent use;
// a run is single-threaded by design.
type Quotes struct {
	md       ports.MarketData
	cache    map[string]domain.Quote
	attempts int
	backoff  time.Duration
}

// NewQuotes creates an empty cache over the given market-data source.
// attempts <= 0 and backoff <= 0 select the defaults.
func NewQuotes(md ports.MarketData, attempts int, backoff time.Duration) *Quotes {
	if attempts <= 0 {
		attempts = defaultPricingAttempts
	}
	if backoff <= 0 {
		backoff = defaultPricingBackoff
	}
	return &Quotes{
		md:       md,
		cache:    make(map[string]domain.Quote),
		attempts: attempts,
		backoff:  backoff,
	}
}

// Get returns the instrument's quote, fetching and caching it on first use.
func (q *Quotes) Get(ctx context.Context, conid int64, exchange, symbol string) (domain.Quote, error) {
	key := domain.QuoteKey(conid, exchange)
	if quote, ok := q.cache[key]; ok {
		return quote, nil
	}
	return q.Refresh(ctx, conid, exchange, symbol)
}

// Refresh bypasses the cache and fetches a fresh quote, caching the
// result. The reprice path uses this: a resting order must track the
// market, not the snapshot the run started with.
func (q *Quotes) Refresh(ctx context.Context, conid int64, exchange, symbol string) (domain.Quote, error) {
	quote, err := q.fetch(ctx, conid, exchange, symbol)
	if err != nil {
		return domain.Quote{}, err
	}
	q.cache[domain.QuoteKey(conid, exchange)] = quote
	return quote, nil
}

// fetch polls the snapshot endpoint until it returns all three fields,
// bounded by the attempt budget.
func (q *Quotes) fetch(ctx context.Context, conid int64, exchange, symbol string) (domain.Quote, error) {
	for attempt := 1; attempt <= q.attempts; attempt++ {
		raw, err := q.md.Snapshot(ctx, conid, exchange)
		if err != nil {
			return domain.Quote{}, err
		}

		if raw.Complete() {
			quote, ok, err := parseQuote(raw)
			if err != nil {
				return domain.Quote{}, fmt.Errorf("rebalance: quote for %s: %w", symbol, err)
			}
			if ok {
				slog.Debug("rebalance: pricing found",
					"symbol", symbol, "bid", quote.Bid, "ask", quote.Ask, "last", quote.LastPrice)
				return quote, nil
			}
		}

		slog.Debug("rebalance: retrying incomplete quote",
			"symbol", symbol, "attempt", attempt, "last", raw.LastPrice, "bid", raw.Bid, "ask", raw.Ask)

		if attempt < q.attempts {
			select {
			case <-time.After(q.backoff):
			case <-ctx.Done():
				return domain.Quote{}, ctx.Err()
			}
		}
	}
	return domain.Quote{}, domain.PricingUnavailableError{Symbol: symbol, Attempts: q.attempts}
}

// parseQuote converts a complete raw snapshot into exact decimals.
// A non-positive price means the subscription is still settling; the
// second return value is false so the caller keeps retrying.
func parseQuote(raw domain.RawQuote) (domain.Quote, bool, error) {
	last, err := domain.ToDecimal(sanitizePrice(raw.LastPrice))
	if err != nil {
		return domain.Quote{}, false, err
	}
	bid, err := domain.ToDecimal(raw.Bid)
	if err != nil {
		return domain.Quote{}, false, err
	}
	ask, err := domain.ToDecimal(raw.Ask)
	if err != nil {
		return domain.Quote{}, false, err
	}
	if !last.IsPositive() || !bid.IsPositive() || !ask.IsPositive() {
		return domain.Quote{}, false, nil
	}
	return domain.Quote{LastPrice: last, Bid: bid, Ask: ask}, true, nil
}

// sanitizePrice strips everything but digits, sign, and separators.
// The vendor occasionally prefixes the last price with a letter
// ("C119.7" instead of "119.7").
func sanitizePrice(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		switch r {
		case '-', '.', '/', '\\':
			return r
		}
		return -1
	}, s)
}
