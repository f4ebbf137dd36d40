package recorder

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"ZoneBacktester/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func sampleRun(id string, created time.Time) (*RunRecord, *model.Result) {
	t0 := time.Date(2024, 3, 4, 16, 30, 0, 0, time.UTC)
	res := &model.Result{
		Symbol:         "AUDUSD",
		RiskReward:     2,
		InitialBalance: 10000,
		FinalBalance:   10098,
		Start:          t0.Add(-16 * time.Hour),
		End:            t0,
		Equity:         []float64{10000, 10000, 9900, 10098},
		Trades: []model.Trade{
			{EntryTime: t0, Bias: model.BiasBullish, EntryPrice: 0.66, StopPrice: 0.65, TargetPrice: 0.68,
				Outcome: model.OutcomeStopLoss, ResolutionTime: t0.Add(45 * time.Minute)},
			{EntryTime: t0.Add(4 * time.Hour), Bias: model.BiasBearish, EntryPrice: 0.67, StopPrice: 0.68, TargetPrice: 0.65,
				Outcome: model.OutcomeTakeProfit, ResolutionTime: t0.Add(6 * time.Hour)},
		},
		Counters: model.Counters{Iterations: 3, NoBias: 1, StopLosses: 1, TakeProfits: 1},
	}
	run := &RunRecord{
		ID:             id,
		CreatedAt:      created,
		Symbol:         res.Symbol,
		Source:         "csv",
		RiskReward:     res.RiskReward,
		InitialBalance: res.InitialBalance,
		FinalBalance:   res.FinalBalance,
		Start:          res.Start,
		End:            res.End,
		WinRate:        0.5,
		MaxDrawdownPct: 1,
		Counters:       res.Counters,
	}
	return run, res
}

func TestSQLiteRecorder_RoundTrip(t *testing.T) {
	ctx := context.Background()
	r := openTestDB(t)
	run, res := sampleRun("run-1", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, r.RecordRun(ctx, run, res))

	got, err := r.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, run, got)

	trades, err := r.Trades(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, res.Trades, trades)

	eq, err := r.Equity(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, res.Equity, eq)
}

func TestSQLiteRecorder_ListRunsNewestFirst(t *testing.T) {
	ctx := context.Background()
	r := openTestDB(t)
	base := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		run, res := sampleRun(id, base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, r.RecordRun(ctx, run, res))
	}

	runs, err := r.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "b", runs[1].ID)

	all, err := r.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSQLiteRecorder_DuplicateIDRollsBack(t *testing.T) {
	ctx := context.Background()
	r := openTestDB(t)
	run, res := sampleRun("dup", time.Now().UTC().Truncate(time.Second))
	require.NoError(t, r.RecordRun(ctx, run, res))
	assert.Error(t, r.RecordRun(ctx, run, res))

	eq, err := r.Equity(ctx, "dup")
	require.NoError(t, err)
	assert.Len(t, eq, len(res.Equity))
}

func TestSQLiteRecorder_NotFound(t *testing.T) {
	ctx := context.Background()
	r := openTestDB(t)
	_, err := r.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = r.Trades(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = r.Equity(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteRecorder_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "runs.db")
	r, err := NewSQLiteRecorder(path)
	require.NoError(t, err)
	run, res := sampleRun("persist", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, r.RecordRun(ctx, run, res))
	require.NoError(t, r.Close())

	r2, err := NewSQLiteRecorder(path)
	require.NoError(t, err)
	defer r2.Close()
	got, err := r2.GetRun(ctx, "persist")
	require.NoError(t, err)
	assert.Equal(t, "AUDUSD", got.Symbol)
}

func TestNoopRecorder(t *testing.T) {
	var s Store = NewNoopRecorder()
	ctx := context.Background()
	assert.NoError(t, s.RecordRun(ctx, &RunRecord{}, &model.Result{}))
	runs, err := s.ListRuns(ctx, 10)
	assert.NoError(t, err)
	assert.Empty(t, runs)
	_, err = s.GetRun(ctx, "x")
	assert.ErrorIs(t, err, ErrNotFound)
}
