package report

import (
	"math"

	"ZoneBacktester/internal/model"
)

// Summary rolls up a run's trade log and equity curve.
type Summary struct {
	Symbol         string  `json:"symbol"`
	Trades         int     `json:"trades"`
	Wins           int     `json:"wins"`
	Losses         int     `json:"losses"`
	Timeouts       int     `json:"timeouts"`
	WinRate        float64 `json:"win_rate"` // percent
	NetProfit      float64 `json:"net_profit"`
	ReturnPct      float64 `json:"return_pct"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	ProfitFactor   float64 `json:"profit_factor"`
	InitialBalance float64 `json:"initial_balance"`
	FinalBalance   float64 `json:"final_balance"`
	RiskReward     float64 `json:"risk_reward"`
	Iterations     int     `json:"iterations"`
	NoBias         int     `json:"no_bias"`
	GateRejected   int     `json:"gate_rejected"`
	NotConfirmed   int     `json:"not_confirmed"`
	Degenerate     int     `json:"degenerate"`
}

// profitFactorCap stands in for an infinite profit factor (no losing trades).
const profitFactorCap = 999

// Summarize computes win rate, PnL, drawdown and profit factor for a result.
func Summarize(res *model.Result) Summary {
	s := Summary{
		Symbol:         res.Symbol,
		Trades:         len(res.Trades),
		Timeouts:       res.Counters.Timeouts,
		InitialBalance: res.InitialBalance,
		FinalBalance:   res.FinalBalance,
		RiskReward:     res.RiskReward,
		Iterations:     res.Counters.Iterations,
		NoBias:         res.Counters.NoBias,
		GateRejected:   res.Counters.GateRejected,
		NotConfirmed:   res.Counters.NotConfirmed,
		Degenerate:     res.Counters.Degenerate,
	}
	for _, t := range res.Trades {
		switch t.Outcome {
		case model.OutcomeTakeProfit:
			s.Wins++
		case model.OutcomeStopLoss:
			s.Losses++
		}
	}
	if s.Trades > 0 {
		s.WinRate = 100 * float64(s.Wins) / float64(s.Trades)
	}
	s.NetProfit = res.FinalBalance - res.InitialBalance
	if res.InitialBalance > 0 {
		s.ReturnPct = 100 * s.NetProfit / res.InitialBalance
	}
	s.MaxDrawdownPct = MaxDrawdownPct(res.Equity)
	s.ProfitFactor = profitFactor(res.Equity)
	return s
}

// MaxDrawdownPct is the largest peak-to-trough decline of the curve, in percent of the peak.
func MaxDrawdownPct(equity []float64) float64 {
	peak, maxDD := math.Inf(-1), 0.0
	for _, v := range equity {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			if dd := (peak - v) / peak; dd > maxDD {
				maxDD = dd
			}
		}
	}
	return 100 * maxDD
}

// profitFactor sums the step changes of the equity curve; flat steps are ignored.
func profitFactor(equity []float64) float64 {
	var gain, loss float64
	for i := 1; i < len(equity); i++ {
		d := equity[i] - equity[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	if loss == 0 {
		if gain > 0 {
			return profitFactorCap
		}
		return 0
	}
	return gain / loss
}
