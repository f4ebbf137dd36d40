package model

import "time"

// Account is the sequentially mutated run state: balance, equity curve and trade log.
type Account struct {
	Balance float64   `json:"balance"`
	Equity  []float64 `json:"equity"`
	Trades  []Trade   `json:"trades"`
}

// Counters tallies how each coarse-bar iteration ended.
type Counters struct {
	Iterations   int `json:"iterations"`
	NoBias       int `json:"no_bias"`
	GateRejected int `json:"gate_rejected"`
	NotConfirmed int `json:"not_confirmed"`
	Degenerate   int `json:"degenerate"`
	Timeouts     int `json:"timeouts"`
	StopLosses   int `json:"stop_losses"`
	TakeProfits  int `json:"take_profits"`
}

// Result is the output of one engine run.
type Result struct {
	Symbol         string    `json:"symbol"`
	RiskReward     float64   `json:"risk_reward"`
	InitialBalance float64   `json:"initial_balance"`
	FinalBalance   float64   `json:"final_balance"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	Equity         []float64 `json:"equity"`
	Trades         []Trade   `json:"trades"`
	Counters       Counters  `json:"counters"`
}

// TradeLog returns the flattened trade rows in resolution order.
func (r *Result) TradeLog() []TradeRecord {
	out := make([]TradeRecord, 0, len(r.Trades))
	for _, t := range r.Trades {
		out = append(out, t.Record())
	}
	return out
}
