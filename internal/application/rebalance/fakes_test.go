package rebalance_test

// fakes_test.go — in-memory implementations of the broker ports.

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/rebalancer/internal/domain"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// scriptedMarketData returns a fixed sequence of snapshots for one
// instrument, then repeats the last one; or serves a static per-key map.
type scriptedMarketData struct {
	sequence []domain.RawQuote
	byKey    map[string]domain.RawQuote
	calls    int
}

func (f *scriptedMarketData) Snapshot(_ context.Context, conid int64, exchange string) (domain.RawQuote, error) {
	f.calls++
	if f.byKey != nil {
		return f.byKey[domain.QuoteKey(conid, exchange)], nil
	}
	i := f.calls - 1
	if i >= len(f.sequence) {
		i = len(f.sequence) - 1
	}
	return f.sequence[i], nil
}

func completeQuote(last, bid, ask string) domain.RawQuote {
	return domain.RawQuote{LastPrice: last, Bid: bid, Ask: ask}
}

type fakeAccounts struct {
	positions []domain.Position
	net       decimal.Decimal
	switched  []string

	positionsCalls int
}

func (f *fakeAccounts) SwitchAccount(_ context.Context, accountID string) error {
	f.switched = append(f.switched, accountID)
	return nil
}

func (f *fakeAccounts) NetValue(_ context.Context) (decimal.Decimal, error) {
	return f.net, nil
}

func (f *fakeAccounts) Positions(_ context.Context) ([]domain.Position, error) {
	f.positionsCalls++
	out := make([]domain.Position, len(f.positions))
	copy(out, f.positions)
	return out, nil
}

type fakeResolver struct {
	conids map[string]int64
	calls  int
}

func (f *fakeResolver) ResolveConid(_ context.Context, symbol, exchange string) (int64, error) {
	f.calls++
	conid, ok := f.conids[symbol]
	if !ok {
		return 0, domain.SymbolResolutionError{Symbol: symbol, Exchange: exchange}
	}
	return conid, nil
}

// fakeGateway scripts the order lifecycle. Status answers are consumed in
// order; once exhausted the order reports Filled.
type fakeGateway struct {
	committing bool
	submitErr  error
	confirmErr error
	statuses   []string
	statusIdx  int

	submitted []domain.OrderTicket
	confirmed []string
	modified  []decimal.Decimal
	nextID    int
}

func (f *fakeGateway) Committing() bool { return f.committing }

func (f *fakeGateway) Submit(_ context.Context, ticket domain.OrderTicket) (domain.OrderAck, error) {
	if f.submitErr != nil {
		return domain.OrderAck{}, f.submitErr
	}
	f.nextID++
	f.submitted = append(f.submitted, ticket)
	return domain.OrderAck{OrderID: fmt.Sprintf("order-%d", f.nextID)}, nil
}

func (f *fakeGateway) Confirm(_ context.Context, orderID string, _ domain.OrderTicket) error {
	if f.confirmErr != nil {
		return f.confirmErr
	}
	f.confirmed = append(f.confirmed, orderID)
	return nil
}

func (f *fakeGateway) Status(_ context.Context, orderID string) (domain.OrderStatus, error) {
	if f.statusIdx < len(f.statuses) {
		s := f.statuses[f.statusIdx]
		f.statusIdx++
		return domain.OrderStatus{OrderID: orderID, Status: s}, nil
	}
	return domain.OrderStatus{OrderID: orderID, Status: "Filled"}, nil
}

func (f *fakeGateway) ModifyPrice(_ context.Context, _ string, _ domain.OrderTicket, price decimal.Decimal) error {
	f.modified = append(f.modified, price)
	return nil
}

type savedOrder struct {
	runID string
	rec   domain.OrderRecord
}

type fakeStore struct {
	runs   []domain.RunRecord
	orders []savedOrder
}

func (f *fakeStore) SaveRun(_ context.Context, run domain.RunRecord) (string, error) {
	f.runs = append(f.runs, run)
	return run.ID, nil
}

func (f *fakeStore) SaveOrder(_ context.Context, runID string, rec domain.OrderRecord) error {
	f.orders = append(f.orders, savedOrder{runID: runID, rec: rec})
	return nil
}

func (f *fakeStore) Runs(_ context.Context, limit int) ([]domain.RunRecord, error) {
	return f.runs, nil
}

func (f *fakeStore) Close() error { return nil }
