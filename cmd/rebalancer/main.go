package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alejandrodnm/rebalancer/config"
	"github.com/alejandrodnm/rebalancer/internal/adapters/ibkr"
	"github.com/alejandrodnm/rebalancer/internal/adapters/notify"
	"github.com/alejandrodnm/rebalancer/internal/adapters/storage"
	"github.com/alejandrodnm/rebalancer/internal/application/rebalance"
	"github.com/alejandrodnm/rebalancer/internal/domain"
	"github.com/alejandrodnm/rebalancer/internal/ports"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	execute := flag.Bool("execute", false, "place real orders (default: what-if dry run)")
	yes := flag.Bool("yes", false, "skip the confirmation prompt in execute mode")
	account := flag.String("account", "", "rebalance only the account with this name")
	history := flag.Bool("history", false, "print recent run history and exit")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	if *history {
		printHistory(ctx, store)
		return
	}

	slog.Info("rebalancer starting",
		"config", *configPath,
		"gateway", cfg.Gateway.URL,
		"accounts", len(cfg.Accounts),
		"execute", *execute,
	)

	client := ibkr.NewClient(cfg.Gateway.URL, cfg.Gateway.InsecureSkipVerify)
	if err := client.Warmup(ctx); err != nil {
		slog.Error("gateway session warm-up failed", "err", err)
		os.Exit(1)
	}

	var gateway ports.OrderGateway
	if *execute {
		gateway = ibkr.NewLiveOrders(client)
	} else {
		gateway = ibkr.NewWhatIfOrders(client)
	}

	var approve rebalance.ApproveFunc
	if *execute && !*yes {
		approve = promptApproval
	}

	engine := rebalance.New(
		rebalance.Config{
			PollInterval:    cfg.PollInterval(),
			MaxWait:         cfg.MaxWait(),
			PricingAttempts: cfg.Engine.PricingRetries,
			PricingBackoff:  cfg.PricingBackoff(),
		},
		client, client, client, gateway, store, notify.NewConsole(), approve,
	)

	for _, acctCfg := range cfg.Accounts {
		if *account != "" && acctCfg.Name != *account {
			continue
		}
		acct, err := accountFromConfig(acctCfg)
		if err != nil {
			slog.Error("invalid account configuration", "account", acctCfg.Name, "err", err)
			os.Exit(1)
		}
		slog.Info("rebalancing account", "account", acct.Name, "cap", acct.Cap)
		if err := engine.Run(ctx, acct); err != nil {
			slog.Error("run failed", "account", acct.Name, "err", err)
			os.Exit(1)
		}
	}

	slog.Info("rebalancer finished cleanly")
}

// accountFromConfig parses the account's cap and allocation percents into
// exact decimals. Bad syntax here is fatal before any trading starts.
func accountFromConfig(acctCfg config.AccountConfig) (rebalance.Account, error) {
	portfolioCap, err := domain.ParseCap(acctCfg.PortfolioCap)
	if err != nil {
		return rebalance.Account{}, err
	}
	allocations := make([]domain.Allocation, 0, len(acctCfg.Allocations))
	for _, a := range acctCfg.Allocations {
		percent, err := domain.ToDecimal(a.Percent)
		if err != nil {
			return rebalance.Account{}, fmt.Errorf("allocation %s: %w", a.Symbol, err)
		}
		allocations = append(allocations, domain.Allocation{
			Symbol:   a.Symbol,
			Exchange: a.Exchange,
			Percent:  percent,
		})
	}
	return rebalance.Account{
		ID:          acctCfg.AccountID,
		Name:        acctCfg.Name,
		Cap:         portfolioCap,
		Allocations: allocations,
	}, nil
}

// promptApproval asks on stdin before any real order is placed.
func promptApproval(ctx context.Context) bool {
	fmt.Print("Confirm all trades (yes/no): ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(line), "yes")
}

func printHistory(ctx context.Context, store *storage.SQLiteStorage) {
	runs, err := store.Runs(ctx, 20)
	if err != nil {
		slog.Error("failed to read run history", "err", err)
		os.Exit(1)
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		return
	}
	for _, r := range runs {
		mode := "execute"
		if r.DryRun {
			mode = "dry-run"
		}
		fmt.Printf("%s  %-20s %-8s %-9s net=$%s capped=$%s sells=%d buys=%d\n",
			r.StartedAt.Format("2006-01-02 15:04"), r.AccountName, mode, r.Status,
			r.NetValue.StringFixed(2), r.CappedValue.StringFixed(2), r.Sells, r.Buys)
	}
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
