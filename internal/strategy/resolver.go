package strategy

import "ZoneBacktester/internal/model"

// Resolve races the stop against the target over the bars following entry,
// examining at most ResolveLookahead of them. Within a bar the stop is tested
// first. If neither level is touched the trade times out at the last bar examined.
func Resolve(trade model.Trade, following []model.Bar) model.Trade {
	if len(following) > ResolveLookahead {
		following = following[:ResolveLookahead]
	}
	for _, b := range following {
		switch {
		case stopHit(trade, b):
			trade.Outcome = model.OutcomeStopLoss
		case targetHit(trade, b):
			trade.Outcome = model.OutcomeTakeProfit
		default:
			continue
		}
		trade.ResolutionTime = b.Time
		return trade
	}
	trade.Outcome = model.OutcomeTimeout
	trade.ResolutionTime = trade.EntryTime
	if n := len(following); n > 0 {
		trade.ResolutionTime = following[n-1].Time
	}
	return trade
}

func stopHit(t model.Trade, b model.Bar) bool {
	if t.Bias == model.BiasBearish {
		return b.High >= t.StopPrice
	}
	return b.Low <= t.StopPrice
}

func targetHit(t model.Trade, b model.Bar) bool {
	if t.Bias == model.BiasBearish {
		return b.Low <= t.TargetPrice
	}
	return b.High >= t.TargetPrice
}
