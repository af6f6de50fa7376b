package ports

import "context"

// ContractResolver maps a ticker symbol to the broker's contract id.
type ContractResolver interface {
	// ResolveConid returns the conid of symbol on the given listing
	// exchange. Fails if no contract matches unambiguously.
	ResolveConid(ctx context.Context, symbol, exchange string) (int64, error)
}
