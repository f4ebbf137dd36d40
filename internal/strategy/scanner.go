package strategy

import "ZoneBacktester/internal/model"

// ScanKind is the outcome of a fine-timeframe breakout scan.
type ScanKind int

const (
	ScanNotFound ScanKind = iota
	ScanEmpty
	ScanConfirmed
)

// ScanResult holds the confirmation index into the scanned window when Kind is ScanConfirmed.
type ScanResult struct {
	Kind  ScanKind
	Index int
}

// Scan returns the first bar j >= 2 in window whose close breaks beyond the
// bar two positions earlier in the direction of bias: above its high when
// bullish, below its low when bearish.
func Scan(window []model.Bar, bias model.Bias) ScanResult {
	if len(window) < 3 {
		return ScanResult{Kind: ScanEmpty}
	}
	for j := 2; j < len(window); j++ {
		if breaksOut(window[j], window[j-2], bias) {
			return ScanResult{Kind: ScanConfirmed, Index: j}
		}
	}
	return ScanResult{Kind: ScanNotFound}
}

func breaksOut(cur, ref model.Bar, bias model.Bias) bool {
	switch bias {
	case model.BiasBullish:
		return cur.Close > ref.High
	case model.BiasBearish:
		return cur.Close < ref.Low
	default:
		return false
	}
}
