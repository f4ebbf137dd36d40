package model

// Bias is the market-structure label of a coarse bar.
type Bias int

const (
	BiasNone Bias = iota
	BiasBullish
	BiasBearish
)

func (b Bias) String() string {
	switch b {
	case BiasBullish:
		return "Bullish"
	case BiasBearish:
		return "Bearish"
	default:
		return "None"
	}
}

// ParseBias is the inverse of String. Unknown labels map to BiasNone.
func ParseBias(s string) Bias {
	switch s {
	case "Bullish":
		return BiasBullish
	case "Bearish":
		return BiasBearish
	default:
		return BiasNone
	}
}
