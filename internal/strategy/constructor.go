package strategy

import (
	"ZoneBacktester/internal/calculator"
	"ZoneBacktester/internal/model"
)

// Construct builds the trade for a confirmation at window[j]. The local range
// pairs the low two bars back with the confirmation bar's high. The second
// return value is false when entry and stop coincide (zero-risk trade).
func Construct(window []model.Bar, j int, bias model.Bias, rr float64) (model.Trade, bool) {
	fineLow := window[j-2].Low
	fineHigh := window[j].High

	var entry, stop, target float64
	if bias == model.BiasBearish {
		entry = calculator.Retracement(fineHigh, fineLow, calculator.EntryLevel)
		stop = fineHigh
		target = entry - (stop-entry)*rr
	} else {
		entry = calculator.Retracement(fineLow, fineHigh, calculator.EntryLevel)
		stop = fineLow
		target = entry + (entry-stop)*rr
	}
	trade := model.Trade{
		EntryTime:   window[j].Time,
		Bias:        bias,
		EntryPrice:  entry,
		StopPrice:   stop,
		TargetPrice: target,
		Outcome:     model.OutcomeTimeout,
	}
	return trade, entry != stop
}
