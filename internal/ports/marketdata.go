package ports

import (
	"context"

	"github.com/alejandrodnm/rebalancer/internal/domain"
)

// MarketData fetches price snapshots from the venue.
type MarketData interface {
	// Snapshot returns last/bid/ask for one instrument. Any field may
	// come back blank while the venue warms up the subscription; the
	// caller owns retries and caching.
	Snapshot(ctx context.Context, conid int64, exchange string) (domain.RawQuote, error)
}
