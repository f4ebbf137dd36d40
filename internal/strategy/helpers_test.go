package strategy

import (
	"math/rand"
	"testing"
	"time"

	"ZoneBacktester/internal/model"

	"github.com/stretchr/testify/require"
)

var day = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

func bar(ts time.Time, o, h, l, c float64) model.Bar {
	return model.Bar{Time: ts, Open: o, High: h, Low: l, Close: c}
}

func series(t *testing.T, name string, bars []model.Bar) *model.Series {
	t.Helper()
	s, err := model.NewSeries(name, bars)
	require.NoError(t, err)
	return s
}

// coarseFixture returns five 4h bars whose indices 2..4 form a strictly rising
// run; index 3 has no bias because bar 1 breaks its run. close4 sets the last close.
func coarseFixture(close4 float64) []model.Bar {
	const step = 4 * time.Hour
	return []model.Bar{
		bar(day, 8, 10, 5, 9),
		bar(day.Add(step), 9, 12, 7, 11),
		bar(day.Add(2*step), 10, 11, 6, 10),
		bar(day.Add(3*step), 11, 12, 7, 11),
		bar(day.Add(4*step), 12, 13, 8, close4),
	}
}

// walk builds a deterministic pseudo-random 15m series and its 4h aggregation.
func walk(t *testing.T, seed int64, fineBars int) *model.Dataset {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	fine := make([]model.Bar, fineBars)
	price := 1.0
	for i := range fine {
		o := price
		c := o * (1 + (rng.Float64()-0.5)*0.004)
		h := max(o, c) * (1 + rng.Float64()*0.002)
		l := min(o, c) * (1 - rng.Float64()*0.002)
		fine[i] = bar(day.Add(time.Duration(i)*15*time.Minute), o, h, l, c)
		price = c
	}
	var coarse []model.Bar
	for i := 0; i < len(fine); i += 16 {
		end := min(i+16, len(fine))
		b := fine[i]
		for _, f := range fine[i+1 : end] {
			b.High = max(b.High, f.High)
			b.Low = min(b.Low, f.Low)
			b.Close = f.Close
		}
		coarse = append(coarse, b)
	}
	return &model.Dataset{
		Symbol: "WALK",
		Coarse: series(t, "coarse", coarse),
		Fine:   series(t, "fine", fine),
	}
}
