package model

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

var (
	ErrEmptySeries  = errors.New("series is empty")
	ErrUnsorted     = errors.New("timestamps not strictly increasing")
	ErrMalformedBar = errors.New("malformed bar")
)

// Bar represents a single OHLC candlestick.
type Bar struct {
	Time  time.Time `json:"time"`
	Open  float64   `json:"open"`
	High  float64   `json:"high"`
	Low   float64   `json:"low"`
	Close float64   `json:"close"`
}

// Validate checks the OHLC envelope: high is the maximum and low the minimum of the bar.
func (b Bar) Validate() error {
	for _, v := range [...]float64{b.Open, b.High, b.Low, b.Close} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite price at %s", ErrMalformedBar, b.Time.Format(time.RFC3339))
		}
	}
	if b.High < math.Max(b.Open, b.Close) || b.High < b.Low {
		return fmt.Errorf("%w: high %.5f below body at %s", ErrMalformedBar, b.High, b.Time.Format(time.RFC3339))
	}
	if b.Low > math.Min(b.Open, b.Close) {
		return fmt.Errorf("%w: low %.5f above body at %s", ErrMalformedBar, b.Low, b.Time.Format(time.RFC3339))
	}
	return nil
}

// Series is an immutable, strictly time-ordered bar sequence.
type Series struct {
	Name string
	bars []Bar
}

// NewSeries validates bars and wraps them. The input slice is copied.
func NewSeries(name string, bars []Bar) (*Series, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrEmptySeries)
	}
	for i, b := range bars {
		if b.Time.IsZero() {
			return nil, fmt.Errorf("%s bar %d: %w: zero timestamp", name, i, ErrMalformedBar)
		}
		if err := b.Validate(); err != nil {
			return nil, fmt.Errorf("%s bar %d: %w", name, i, err)
		}
		if i > 0 && !b.Time.After(bars[i-1].Time) {
			return nil, fmt.Errorf("%s bar %d (%s after %s): %w", name, i,
				b.Time.Format(time.RFC3339), bars[i-1].Time.Format(time.RFC3339), ErrUnsorted)
		}
	}
	cp := make([]Bar, len(bars))
	copy(cp, bars)
	return &Series{Name: name, bars: cp}, nil
}

func (s *Series) Len() int { return len(s.bars) }

func (s *Series) At(i int) Bar { return s.bars[i] }

// Bars returns a copy of the underlying bars.
func (s *Series) Bars() []Bar {
	out := make([]Bar, len(s.bars))
	copy(out, s.bars)
	return out
}

// Range returns the bars whose timestamps fall in the closed interval [from, to].
// The returned slice shares storage with the series and must not be modified.
func (s *Series) Range(from, to time.Time) []Bar {
	if to.Before(from) {
		return nil
	}
	lo := sort.Search(len(s.bars), func(i int) bool { return !s.bars[i].Time.Before(from) })
	hi := sort.Search(len(s.bars), func(i int) bool { return s.bars[i].Time.After(to) })
	if lo >= hi {
		return nil
	}
	return s.bars[lo:hi:hi]
}

// Dataset pairs the two timeframes a run operates on.
type Dataset struct {
	Symbol string
	Coarse *Series
	Fine   *Series
}
