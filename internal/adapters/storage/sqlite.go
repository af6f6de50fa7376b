package storage

// sqlite.go — run history as an append-only audit log.
//
// Two tables: `runs` (one row per rebalancing pass) and `orders` (one row
// per driven order). Decimals are stored as TEXT so nothing is lost to
// float conversion. Old runs are pruned on startup; the log is for
// diagnosing the last few sessions, not long-term accounting.

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/rebalancer/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id           TEXT PRIMARY KEY,
    account_id   TEXT NOT NULL,
    account_name TEXT NOT NULL,
    dry_run      INTEGER NOT NULL DEFAULT 0,
    net_value    TEXT NOT NULL,
    capped_value TEXT NOT NULL,
    sells        INTEGER NOT NULL DEFAULT 0,
    buys         INTEGER NOT NULL DEFAULT 0,
    status       TEXT NOT NULL,
    started_at   DATETIME NOT NULL,
    finished_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS orders (
    run_id     TEXT NOT NULL REFERENCES runs(id),
    order_id   TEXT,
    client_ref TEXT NOT NULL,
    side       TEXT NOT NULL,
    symbol     TEXT NOT NULL,
    quantity   TEXT NOT NULL,
    price      TEXT NOT NULL,
    reprices   INTEGER NOT NULL DEFAULT 0,
    state      TEXT NOT NULL,
    placed_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);
CREATE INDEX IF NOT EXISTS idx_orders_run   ON orders(run_id);
`

// Runs older than this are pruned on startup.
const retentionRuns = 90 * 24 * time.Hour

// SQLiteStorage implements ports.RunStorage using SQLite (pure Go, no CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens (or creates) the database at the given path,
// applies the schema and prunes old runs.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	s := &SQLiteStorage{db: db}
	s.pruneOld(context.Background())
	return s, nil
}

// SaveRun inserts the run summary row and returns its id.
func (s *SQLiteStorage) SaveRun(ctx context.Context, run domain.RunRecord) (string, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, account_id, account_name, dry_run, net_value, capped_value,
		                  sells, buys, status, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.AccountID, run.AccountName, boolToInt(run.DryRun),
		run.NetValue.String(), run.CappedValue.String(),
		run.Sells, run.Buys, run.Status, run.StartedAt, run.FinishedAt,
	)
	if err != nil {
		return "", fmt.Errorf("storage.SaveRun: %w", err)
	}
	return run.ID, nil
}

// SaveOrder appends one order record under the given run.
func (s *SQLiteStorage) SaveOrder(ctx context.Context, runID string, rec domain.OrderRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO orders (run_id, order_id, client_ref, side, symbol, quantity,
		                    price, reprices, state, placed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, rec.OrderID, rec.ClientRef, string(rec.Side), rec.Symbol,
		rec.Quantity.String(), rec.Price.String(), rec.Reprices, string(rec.State), rec.PlacedAt,
	)
	if err != nil {
		return fmt.Errorf("storage.SaveOrder: %w", err)
	}
	return nil
}

// Runs returns the most recent run summaries, newest first.
func (s *SQLiteStorage) Runs(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_id, account_name, dry_run, net_value, capped_value,
		       sells, buys, status, started_at, finished_at
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.Runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.RunRecord
	for rows.Next() {
		var r domain.RunRecord
		var dryRun int
		var netValue, cappedValue string
		if err := rows.Scan(&r.ID, &r.AccountID, &r.AccountName, &dryRun, &netValue, &cappedValue,
			&r.Sells, &r.Buys, &r.Status, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("storage.Runs: scan: %w", err)
		}
		r.DryRun = dryRun != 0
		if r.NetValue, err = decimal.NewFromString(netValue); err != nil {
			return nil, fmt.Errorf("storage.Runs: net_value of run %s: %w", r.ID, err)
		}
		if r.CappedValue, err = decimal.NewFromString(cappedValue); err != nil {
			return nil, fmt.Errorf("storage.Runs: capped_value of run %s: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) pruneOld(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-retentionRuns)
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM orders WHERE run_id IN (SELECT id FROM runs WHERE started_at < ?)`, cutoff)
	if err != nil {
		slog.Warn("storage: prune orders failed", "err", err)
		return
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE started_at < ?`, cutoff); err != nil {
		slog.Warn("storage: prune runs failed", "err", err)
		return
	}
	if n, _ := res.RowsAffected(); n > 0 {
		slog.Debug("storage: pruned old history", "orders", n)
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
