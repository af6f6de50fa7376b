package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/rebalancer/internal/adapters/storage"
	"github.com/alejandrodnm/rebalancer/internal/domain"
)

func newStore(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	s, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRun(startedAt time.Time) domain.RunRecord {
	return domain.RunRecord{
		ID:          uuid.NewString(),
		AccountID:   "U777",
		AccountName: "main",
		DryRun:      false,
		NetValue:    decimal.RequireFromString("12345.67"),
		CappedValue: decimal.RequireFromString("5000"),
		Sells:       1,
		Buys:        2,
		Status:      "completed",
		StartedAt:   startedAt,
		FinishedAt:  startedAt.Add(30 * time.Second),
	}
}

func TestSaveRunRoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	run := sampleRun(time.Now().UTC())
	runID, err := s.SaveRun(ctx, run)
	require.NoError(t, err)
	assert.Equal(t, run.ID, runID)

	runs, err := s.Runs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	got := runs[0]
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, "U777", got.AccountID)
	assert.Equal(t, "main", got.AccountName)
	assert.False(t, got.DryRun)
	assert.True(t, got.NetValue.Equal(run.NetValue), "decimals survive the TEXT round trip")
	assert.True(t, got.CappedValue.Equal(run.CappedValue))
	assert.Equal(t, 1, got.Sells)
	assert.Equal(t, 2, got.Buys)
	assert.Equal(t, "completed", got.Status)
}

func TestSaveOrder(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	run := sampleRun(time.Now().UTC())
	runID, err := s.SaveRun(ctx, run)
	require.NoError(t, err)

	rec := domain.OrderRecord{
		OrderID:   "1293387046",
		ClientRef: uuid.NewString(),
		Side:      domain.SideBuy,
		Symbol:    "AAPL",
		Quantity:  decimal.RequireFromString("2.5"),
		Price:     decimal.RequireFromString("119.5"),
		Reprices:  1,
		State:     domain.OrderFilled,
		PlacedAt:  time.Now().UTC(),
	}
	require.NoError(t, s.SaveOrder(ctx, runID, rec))
}

func TestRunsNewestFirstWithLimit(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	base := time.Now().UTC()
	var ids []string
	for i := 0; i < 3; i++ {
		run := sampleRun(base.Add(time.Duration(i) * time.Hour))
		ids = append(ids, run.ID)
		_, err := s.SaveRun(ctx, run)
		require.NoError(t, err)
	}

	runs, err := s.Runs(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[1], runs[1].ID)
}

func TestRunsDryRunFlag(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	run := sampleRun(time.Now().UTC())
	run.DryRun = true
	run.Status = "aborted"
	_, err := s.SaveRun(ctx, run)
	require.NoError(t, err)

	runs, err := s.Runs(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.True(t, runs[0].DryRun)
	assert.Equal(t, "aborted", runs[0].Status)
}
