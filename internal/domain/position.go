package domain

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// Position is one holding in the account, quantity may be fractional.
type Position struct {
	Conid    int64
	Symbol   string
	Exchange string
	Quantity decimal.Decimal
	Quote    Quote
}

// Quote is the sanitized, parsed price snapshot for one instrument.
// Within a single run every read of the same conid@exchange sees the same
// Quote, so trade sizing is internally consistent.
type Quote struct {
	LastPrice decimal.Decimal
	Bid       decimal.Decimal
	Ask       decimal.Decimal
}

// RawQuote is a market-data snapshot as the venue returns it: any field
// may be blank or absent while the instrument warms up server-side.
type RawQuote struct {
	LastPrice string
	Bid       string
	Ask       string
}

// Complete reports whether all three fields came back non-blank.
func (r RawQuote) Complete() bool {
	return r.LastPrice != "" && r.Bid != "" && r.Ask != ""
}

// QuoteKey is the per-run cache key for an instrument's pricing.
func QuoteKey(conid int64, exchange string) string {
	return strconv.FormatInt(conid, 10) + "@" + exchange
}
