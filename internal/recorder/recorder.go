package recorder

import (
	"context"
	"errors"
	"time"

	"ZoneBacktester/internal/model"
)

// ErrNotFound is returned by Reader lookups for an unknown run ID.
var ErrNotFound = errors.New("run not found")

// RunRecord is the stored summary of one backtest run.
type RunRecord struct {
	ID             string         `json:"id"`
	CreatedAt      time.Time      `json:"created_at"`
	Symbol         string         `json:"symbol"`
	Source         string         `json:"source"`
	RiskReward     float64        `json:"risk_reward"`
	InitialBalance float64        `json:"initial_balance"`
	FinalBalance   float64        `json:"final_balance"`
	Start          time.Time      `json:"start"`
	End            time.Time      `json:"end"`
	WinRate        float64        `json:"win_rate"`
	MaxDrawdownPct float64        `json:"max_drawdown_pct"`
	Counters       model.Counters `json:"counters"`
}

// Recorder persists backtest runs for later analysis.
type Recorder interface {
	RecordRun(ctx context.Context, run *RunRecord, res *model.Result) error
	Close() error
}

// Reader queries persisted runs.
type Reader interface {
	ListRuns(ctx context.Context, limit int) ([]RunRecord, error)
	GetRun(ctx context.Context, id string) (*RunRecord, error)
	Trades(ctx context.Context, id string) ([]model.Trade, error)
	Equity(ctx context.Context, id string) ([]float64, error)
}

// Store is a Recorder that can also be queried.
type Store interface {
	Recorder
	Reader
}
