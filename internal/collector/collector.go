package collector

import (
	"context"
	"fmt"
	"math"
	"time"

	"ZoneBacktester/internal/logger"
	"ZoneBacktester/internal/model"

	"golang.org/x/sync/errgroup"
)

// MockFetcher returns fixed bars per interval, or a generated walk when none are set.
type MockFetcher struct {
	Price float64
	Bars  map[string][]model.Bar
	Err   error
	Start time.Time
	Count int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchBars(_ context.Context, _ string, interval string) ([]model.Bar, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if bars, ok := m.Bars[interval]; ok {
		return bars, nil
	}
	step, err := ParseInterval(interval)
	if err != nil {
		return nil, err
	}
	return generateMockBars(m.Price, m.Start, step, m.Count), nil
}

// generateMockBars builds a deterministic oscillating series so both
// timeframes produce structure and breakouts.
func generateMockBars(basePrice float64, start time.Time, step time.Duration, count int) []model.Bar {
	if basePrice == 0 {
		basePrice = 1
	}
	if start.IsZero() {
		start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	if count == 0 {
		count = int((30 * 24 * time.Hour) / step)
	}
	bars := make([]model.Bar, count)
	ts := start.Truncate(step)
	for i := range bars {
		// Price is a function of wall time so every interval traces the same path.
		x := float64(ts.Unix()) / 3600
		p := basePrice * (1 + 0.01*math.Sin(x/7) + 0.004*math.Sin(x/1.3))
		o := p * (1 - 0.0005*math.Cos(x))
		bars[i] = model.Bar{
			Time:  ts,
			Open:  o,
			High:  math.Max(o, p) * 1.001,
			Low:   math.Min(o, p) * 0.999,
			Close: p,
		}
		ts = ts.Add(step)
	}
	return bars
}

// Collector fetches the coarse and fine series for one symbol.
type Collector struct {
	Fetcher        Fetcher
	Symbol         string
	CoarseInterval string
	FineInterval   string
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, symbol, coarseInterval, fineInterval string) *Collector {
	return &Collector{
		Fetcher:        fetcher,
		Symbol:         symbol,
		CoarseInterval: coarseInterval,
		FineInterval:   fineInterval,
	}
}

// Collect fetches both timeframes concurrently and validates them into a Dataset.
func (c *Collector) Collect(ctx context.Context) (*model.Dataset, error) {
	var coarse, fine []model.Bar
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		bars, err := c.Fetcher.FetchBars(gctx, c.Symbol, c.CoarseInterval)
		if err != nil {
			return fmt.Errorf("fetch %s bars: %w", c.CoarseInterval, err)
		}
		coarse = bars
		return nil
	})
	g.Go(func() error {
		bars, err := c.Fetcher.FetchBars(gctx, c.Symbol, c.FineInterval)
		if err != nil {
			return fmt.Errorf("fetch %s bars: %w", c.FineInterval, err)
		}
		fine = bars
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cs, err := model.NewSeries(c.CoarseInterval, coarse)
	if err != nil {
		return nil, err
	}
	fs, err := model.NewSeries(c.FineInterval, fine)
	if err != nil {
		return nil, err
	}
	logger.Infof("[collector] %s via %s: %d %s bars, %d %s bars",
		c.Symbol, c.Fetcher.Name(), cs.Len(), c.CoarseInterval, fs.Len(), c.FineInterval)
	return &model.Dataset{Symbol: c.Symbol, Coarse: cs, Fine: fs}, nil
}
