package calculator

import "ZoneBacktester/internal/model"

// ClassifyStructure labels every bar with the bias implied by it and the two
// bars before it. The first two entries are always BiasNone.
func ClassifyStructure(bars []model.Bar) []model.Bias {
	out := make([]model.Bias, len(bars))
	for i := 2; i < len(bars); i++ {
		out[i] = classify(bars[i-2], bars[i-1], bars[i])
	}
	return out
}

// classify requires a strict run on both legs; any tie yields BiasNone.
func classify(a, b, c model.Bar) model.Bias {
	switch {
	case c.High > b.High && b.High > a.High && c.Low > b.Low && b.Low > a.Low:
		return model.BiasBullish
	case c.High < b.High && b.High < a.High && c.Low < b.Low && b.Low < a.Low:
		return model.BiasBearish
	default:
		return model.BiasNone
	}
}
