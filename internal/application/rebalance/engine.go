package rebalance

// engine.go — one rebalancing run, end to end.
//
// A run is sequential and restart-from-scratch: switch account, snapshot
// holdings, cap the net value, prepare targets, compute trades, then
// drive each order to terminal state one at a time. Sells complete before
// buys are computed a second time, so buys are never sized against
// unrealized sell proceeds. All caches (quotes, conids) live on the run.

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/rebalancer/internal/domain"
	"github.com/alejandrodnm/rebalancer/internal/ports"
)

// Config tunes a run's timing and retry budgets.
type Config struct {
	PollInterval    time.Duration // order status poll period (default 5s)
	MaxWait         time.Duration // max wait per order fill; 0 waits forever
	PricingAttempts int           // snapshot retry budget (default 10)
	PricingBackoff  time.Duration // pause between snapshot retries
}

// Account is everything a run needs to know about one account.
type Account struct {
	ID          string
	Name        string
	Cap         domain.PortfolioCap
	Allocations []domain.Allocation
}

// ApproveFunc gates execution after the plan is presented. Returning
// false aborts the run before any order is placed.
type ApproveFunc func(ctx context.Context) bool

// Engine runs rebalancing passes over injected collaborators.
type Engine struct {
	cfg      Config
	accounts ports.AccountService
	resolver ports.ContractResolver
	md       ports.MarketData
	gateway  ports.OrderGateway
	store    ports.RunStorage // optional
	notifier ports.Notifier
	approve  ApproveFunc // optional; nil auto-approves
}

// New wires an Engine. store and approve may be nil.
func New(cfg Config, accounts ports.AccountService, resolver ports.ContractResolver,
	md ports.MarketData, gateway ports.OrderGateway, store ports.RunStorage,
	notifier ports.Notifier, approve ApproveFunc) *Engine {
	return &Engine{
		cfg:      cfg,
		accounts: accounts,
		resolver: resolver,
		md:       md,
		gateway:  gateway,
		store:    store,
		notifier: notifier,
		approve:  approve,
	}
}

// Run rebalances one account toward its target allocations.
func (e *Engine) Run(ctx context.Context, acct Account) error {
	// Pure validation first: a bad target list must fail before the run
	// spends a single request.
	if err := domain.ValidateAllocationSum(acct.Allocations); err != nil {
		return err
	}

	run := domain.RunRecord{
		ID:          uuid.NewString(),
		AccountID:   acct.ID,
		AccountName: acct.Name,
		DryRun:      !e.gateway.Committing(),
		StartedAt:   time.Now().UTC(),
	}
	slog.Info("rebalance: starting run",
		"run_id", run.ID, "account", acct.Name, "cap", acct.Cap, "dry_run", run.DryRun)

	quotes := NewQuotes(e.md, e.cfg.PricingAttempts, e.cfg.PricingBackoff)
	preparer := NewPreparer(e.resolver, quotes)
	driver := NewDriver(e.gateway, quotes, e.notifier, e.cfg.PollInterval, e.cfg.MaxWait)

	var records []domain.OrderRecord
	finish := func(status string, runErr error) error {
		run.Status = status
		run.FinishedAt = time.Now().UTC()
		e.saveRun(ctx, run, records)
		return runErr
	}

	if err := e.accounts.SwitchAccount(ctx, acct.ID); err != nil {
		return finish("aborted", err)
	}

	positions, net, err := e.snapshotAccount(ctx, quotes)
	if err != nil {
		return finish("aborted", err)
	}
	capped := acct.Cap.Apply(net)
	run.NetValue = net
	run.CappedValue = capped
	slog.Info("rebalance: account snapshot",
		"positions", len(positions), "net_value", net, "capped_value", capped)

	prepared, err := preparer.Prepare(ctx, acct.Allocations)
	if err != nil {
		return finish("aborted", err)
	}

	sells, buys := domain.CalculateTrades(positions, prepared, capped)
	run.Sells = len(sells)
	run.Buys = len(buys)

	if e.notifier != nil {
		if err := e.notifier.NotifyPlan(ctx, acct.Name, net, capped, sells, buys); err != nil {
			slog.Warn("rebalance: notifier error", "err", err)
		}
	}
	if len(sells) == 0 && len(buys) == 0 {
		slog.Info("rebalance: portfolio already balanced, no trades necessary")
		return finish("completed", nil)
	}

	if e.approve != nil && !e.approve(ctx) {
		slog.Info("rebalance: aborting trades")
		return finish("aborted", nil)
	}

	for _, ticket := range sells {
		rec, err := driver.Execute(ctx, ticket)
		records = append(records, rec)
		if err != nil {
			return finish("aborted", err)
		}
	}

	// Sell proceeds fund buys: once the sells are live fills, resize the
	// buy side against the refreshed account. The quote cache keeps the
	// recomputation on the same prices as the first pass.
	if e.gateway.Committing() && len(sells) > 0 {
		positions, net, err = e.snapshotAccount(ctx, quotes)
		if err != nil {
			return finish("aborted", err)
		}
		capped = acct.Cap.Apply(net)
		run.NetValue = net
		run.CappedValue = capped
		_, buys = domain.CalculateTrades(positions, prepared, capped)
		run.Buys = len(buys)
		slog.Info("rebalance: buys recomputed after sells",
			"net_value", net, "capped_value", capped, "buys", len(buys))
	}

	for _, ticket := range buys {
		rec, err := driver.Execute(ctx, ticket)
		records = append(records, rec)
		if err != nil {
			return finish("aborted", err)
		}
	}

	slog.Info("rebalance: run complete",
		"run_id", run.ID, "orders", len(records), "dry_run", run.DryRun)
	return finish("completed", nil)
}

// snapshotAccount reads holdings and net value, pricing every position
// through the run's quote cache.
func (e *Engine) snapshotAccount(ctx context.Context, quotes *Quotes) ([]domain.Position, decimal.Decimal, error) {
	positions, err := e.accounts.Positions(ctx)
	if err != nil {
		return nil, decimal.Zero, err
	}
	for i := range positions {
		quote, err := quotes.Get(ctx, positions[i].Conid, positions[i].Exchange, positions[i].Symbol)
		if err != nil {
			return nil, decimal.Zero, err
		}
		positions[i].Quote = quote
	}
	net, err := e.accounts.NetValue(ctx)
	if err != nil {
		return nil, decimal.Zero, err
	}
	return positions, net, nil
}

func (e *Engine) saveRun(ctx context.Context, run domain.RunRecord, records []domain.OrderRecord) {
	if e.store == nil {
		return
	}
	runID, err := e.store.SaveRun(ctx, run)
	if err != nil {
		slog.Warn("rebalance: failed to save run", "err", err)
		return
	}
	for _, rec := range records {
		if err := e.store.SaveOrder(ctx, runID, rec); err != nil {
			slog.Warn("rebalance: failed to save order record", "err", err, "order_id", rec.OrderID)
		}
	}
}
