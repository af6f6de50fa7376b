package ports

import (
	"context"

	"github.com/alejandrodnm/rebalancer/internal/domain"
)

// RunStorage persists an audit trail of rebalancing runs. It is a log,
// not resumable state: a run always starts from scratch.
type RunStorage interface {
	// SaveRun records a completed (or aborted) run and returns its id.
	SaveRun(ctx context.Context, run domain.RunRecord) (string, error)

	// SaveOrder records one driven order under the given run.
	SaveOrder(ctx context.Context, runID string, rec domain.OrderRecord) error

	// Runs returns the most recent run summaries, newest first.
	Runs(ctx context.Context, limit int) ([]domain.RunRecord, error)

	Close() error
}
