package collector

import (
	"time"

	"ZoneBacktester/internal/model"
)

// Resample aggregates bars into buckets of width step aligned to the Unix epoch.
// Open is the first bar's open, close the last bar's close, high and low the extremes.
// Input must be time-ordered.
func Resample(bars []model.Bar, step time.Duration) []model.Bar {
	if len(bars) == 0 || step <= 0 {
		return nil
	}
	var out []model.Bar
	var cur model.Bar
	var started bool

	for _, b := range bars {
		bucket := b.Time.Truncate(step)
		if !started || !bucket.Equal(cur.Time) {
			if started {
				out = append(out, cur)
			}
			cur = model.Bar{Time: bucket, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close}
			started = true
			continue
		}
		if b.High > cur.High {
			cur.High = b.High
		}
		if b.Low < cur.Low {
			cur.Low = b.Low
		}
		cur.Close = b.Close
	}
	if started {
		out = append(out, cur)
	}
	return out
}
