package collector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ZoneBacktester/internal/model"
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	FetchBars(ctx context.Context, symbol, interval string) ([]model.Bar, error)
	Name() string
}

// ParseInterval converts interval labels such as "15m", "1h", "4h" or "1d" to a duration.
func ParseInterval(interval string) (time.Duration, error) {
	s := strings.ToLower(strings.TrimSpace(interval))
	scale := time.Duration(1)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		s, scale = days+"h", 24
	}
	d, err := time.ParseDuration(s)
	d *= scale
	if err != nil {
		return 0, fmt.Errorf("parse interval %q: %w", interval, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("parse interval %q: must be positive", interval)
	}
	return d, nil
}
