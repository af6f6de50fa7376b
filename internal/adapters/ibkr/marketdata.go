package ibkr

// marketdata.go — implements ports.MarketData via the md/snapshot
// endpoint. Field ids per the Client Portal docs: 31 last, 84 bid, 86 ask.

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/alejandrodnm/rebalancer/internal/domain"
)

const (
	fieldLastPrice = "31"
	fieldBid       = "84"
	fieldAsk       = "86"
)

// Snapshot fetches last/bid/ask for one instrument. The endpoint streams
// lazily: the first requests after subscribing often return an empty array
// or rows with blank fields. Those come back as an incomplete RawQuote;
// retrying is the caller's job.
func (c *Client) Snapshot(ctx context.Context, conid int64, exchange string) (domain.RawQuote, error) {
	identifier := domain.QuoteKey(conid, exchange) + ":CS"
	query := url.Values{
		"conids": {identifier},
		"fields": {fieldLastPrice + "," + fieldBid + "," + fieldAsk},
	}

	var rows []map[string]any
	if err := c.get(ctx, "/md/snapshot", query, &rows); err != nil {
		return domain.RawQuote{}, fmt.Errorf("ibkr.Snapshot: %s: %w", identifier, err)
	}
	if len(rows) == 0 {
		return domain.RawQuote{}, nil
	}

	row := rows[0]
	return domain.RawQuote{
		LastPrice: fieldString(row[fieldLastPrice]),
		Bid:       fieldString(row[fieldBid]),
		Ask:       fieldString(row[fieldAsk]),
	}, nil
}

// fieldString normalizes a snapshot field, which the gateway serves as
// either a JSON string or a number depending on the instrument.
func fieldString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return ""
	}
}
