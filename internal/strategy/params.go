package strategy

import (
	"fmt"
	"time"
)

const (
	// ScanWindow bounds the fine-timeframe search after a coarse bar's open time (inclusive).
	ScanWindow = 8 * time.Hour
	// ResolveLookahead is the maximum number of fine bars examined after the confirmation bar.
	ResolveLookahead = 100
	// FirstCoarseIndex is the first coarse bar evaluated for a trade.
	FirstCoarseIndex = 3

	MinRiskReward = 1.0
	MaxRiskReward = 5.0
)

// Params is the immutable per-run configuration handed to the engine.
type Params struct {
	RiskReward     float64
	InitialBalance float64
	// Workers > 1 evaluates trade attempts in parallel; the ledger is always reduced in order.
	Workers int
}

// DefaultParams returns RR 2.45 on a 10000 balance with one worker.
func DefaultParams() Params {
	return Params{RiskReward: 2.45, InitialBalance: 10000, Workers: 1}
}

// Validate checks parameter domains.
func (p Params) Validate() error {
	if p.RiskReward < MinRiskReward || p.RiskReward > MaxRiskReward {
		return fmt.Errorf("risk_reward_ratio %.2f outside [%.1f, %.1f]", p.RiskReward, MinRiskReward, MaxRiskReward)
	}
	if p.InitialBalance <= 0 {
		return fmt.Errorf("initial_balance must be positive, got %.2f", p.InitialBalance)
	}
	if p.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", p.Workers)
	}
	return nil
}
