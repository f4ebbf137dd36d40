package calculator

import (
	"ZoneBacktester/internal/model"
)

const (
	// GateLevel is the coarse retracement that disqualifies a late entry.
	GateLevel = 0.5
	// EntryLevel is the fine-range retracement used as the entry price.
	EntryLevel = 0.71
)

// Retracement interpolates between two range extremes: from + level*(to-from).
// Orientation is carried by the argument order, so the result always lies
// between from and to for level in [0, 1].
func Retracement(from, to, level float64) float64 {
	return from + level*(to-from)
}

// RetracementAnchor orients a coarse bar's range by bias.
// Bullish anchors from the low to the high, bearish from the high to the low.
func RetracementAnchor(bar model.Bar, bias model.Bias) (fibLow, fibHigh float64) {
	if bias == model.BiasBearish {
		return bar.High, bar.Low
	}
	return bar.Low, bar.High
}

// NewSetup computes the 50% anchor for a biased coarse bar.
func NewSetup(index int, bar model.Bar, bias model.Bias) model.Setup {
	lo, hi := RetracementAnchor(bar, bias)
	return model.Setup{
		CoarseIndex: index,
		CoarseTime:  bar.Time,
		Bias:        bias,
		FibLow:      lo,
		FibHigh:     hi,
		Fib50:       Retracement(lo, hi, GateLevel),
	}
}

// Crossed reports whether the close has already reached the 50% level in the
// direction of bias. A crossed setup is rejected.
func Crossed(setup model.Setup, close float64) bool {
	switch setup.Bias {
	case model.BiasBullish:
		return close >= setup.Fib50
	case model.BiasBearish:
		return close <= setup.Fib50
	default:
		return true
	}
}
