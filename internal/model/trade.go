package model

import "time"

// Outcome is how a trade was resolved.
type Outcome int

const (
	OutcomeTimeout Outcome = iota
	OutcomeStopLoss
	OutcomeTakeProfit
)

// Code returns the trade log result label ("SL", "TP", or "" for timeouts).
func (o Outcome) Code() string {
	switch o {
	case OutcomeStopLoss:
		return "SL"
	case OutcomeTakeProfit:
		return "TP"
	default:
		return ""
	}
}

// ParseOutcome is the inverse of Code.
func ParseOutcome(code string) Outcome {
	switch code {
	case "SL":
		return OutcomeStopLoss
	case "TP":
		return OutcomeTakeProfit
	default:
		return OutcomeTimeout
	}
}

func (o Outcome) String() string {
	switch o {
	case OutcomeStopLoss:
		return "StopLoss"
	case OutcomeTakeProfit:
		return "TakeProfit"
	default:
		return "Timeout"
	}
}

// Setup is the retracement anchor computed for one biased coarse bar.
type Setup struct {
	CoarseIndex int
	CoarseTime  time.Time
	Bias        Bias
	FibLow      float64
	FibHigh     float64
	Fib50       float64
}

// Trade is a constructed and resolved position.
type Trade struct {
	EntryTime      time.Time
	Bias           Bias
	EntryPrice     float64
	StopPrice      float64
	TargetPrice    float64
	Outcome        Outcome
	ResolutionTime time.Time
}

// TradeRecord is the flat trade log row handed to presentation and export.
type TradeRecord struct {
	Time   string  `json:"time" parquet:"time"`
	Bias   string  `json:"bias" parquet:"bias"`
	Entry  float64 `json:"entry" parquet:"entry"`
	TP     float64 `json:"tp" parquet:"tp"`
	SL     float64 `json:"sl" parquet:"sl"`
	Result string  `json:"result" parquet:"result"`
}

// TradeTimeLayout formats TradeRecord.Time.
const TradeTimeLayout = "2006-01-02 15:04:05"

// Record flattens the trade into its log row.
func (t Trade) Record() TradeRecord {
	return TradeRecord{
		Time:   t.EntryTime.UTC().Format(TradeTimeLayout),
		Bias:   t.Bias.String(),
		Entry:  t.EntryPrice,
		TP:     t.TargetPrice,
		SL:     t.StopPrice,
		Result: t.Outcome.Code(),
	}
}
