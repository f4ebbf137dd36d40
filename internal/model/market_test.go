package model

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func flat(i int, p float64) Bar {
	return Bar{Time: t0.Add(time.Duration(i) * 15 * time.Minute), Open: p, High: p + 1, Low: p - 1, Close: p}
}

func TestNewSeries_Validation(t *testing.T) {
	_, err := NewSeries("fine", nil)
	assert.ErrorIs(t, err, ErrEmptySeries)

	dup := []Bar{flat(0, 10), flat(0, 11)}
	_, err = NewSeries("fine", dup)
	assert.ErrorIs(t, err, ErrUnsorted)

	reversed := []Bar{flat(1, 10), flat(0, 11)}
	_, err = NewSeries("fine", reversed)
	assert.ErrorIs(t, err, ErrUnsorted)

	bad := flat(0, 10)
	bad.High = 9.5
	_, err = NewSeries("fine", []Bar{bad})
	assert.ErrorIs(t, err, ErrMalformedBar)
	assert.Contains(t, err.Error(), "fine bar 0")

	nan := flat(0, 10)
	nan.Close = math.NaN()
	_, err = NewSeries("coarse", []Bar{nan})
	assert.ErrorIs(t, err, ErrMalformedBar)

	_, err = NewSeries("coarse", []Bar{{Open: 1, High: 1, Low: 1, Close: 1}})
	assert.ErrorIs(t, err, ErrMalformedBar)
}

func TestNewSeries_CopiesInput(t *testing.T) {
	bars := []Bar{flat(0, 10), flat(1, 11)}
	s, err := NewSeries("fine", bars)
	require.NoError(t, err)
	bars[0].Close = 99
	assert.Equal(t, 10.0, s.At(0).Close)
	assert.Equal(t, 2, s.Len())
}

func TestSeries_RangeIsClosed(t *testing.T) {
	bars := make([]Bar, 10)
	for i := range bars {
		bars[i] = flat(i, 100)
	}
	s, err := NewSeries("fine", bars)
	require.NoError(t, err)

	got := s.Range(bars[2].Time, bars[5].Time)
	require.Len(t, got, 4)
	assert.Equal(t, bars[2].Time, got[0].Time)
	assert.Equal(t, bars[5].Time, got[3].Time)

	// bounds between bars
	got = s.Range(bars[2].Time.Add(time.Minute), bars[5].Time.Add(-time.Minute))
	require.Len(t, got, 2)
	assert.Equal(t, bars[3].Time, got[0].Time)

	assert.Empty(t, s.Range(bars[9].Time.Add(time.Second), bars[9].Time.Add(time.Hour)))
	assert.Empty(t, s.Range(bars[5].Time, bars[2].Time))
	assert.Len(t, s.Range(t0.Add(-time.Hour), bars[0].Time), 1)
}

func TestTradeRecord(t *testing.T) {
	tr := Trade{
		EntryTime:   t0.Add(30 * time.Minute),
		Bias:        BiasBearish,
		EntryPrice:  1.2,
		StopPrice:   1.3,
		TargetPrice: 1.1,
		Outcome:     OutcomeTakeProfit,
	}
	rec := tr.Record()
	assert.Equal(t, "2024-01-02 00:30:00", rec.Time)
	assert.Equal(t, "Bearish", rec.Bias)
	assert.Equal(t, "TP", rec.Result)
	assert.Equal(t, 1.1, rec.TP)
	assert.Equal(t, 1.3, rec.SL)
	assert.Equal(t, "", OutcomeTimeout.Code())
	assert.Equal(t, BiasBearish, ParseBias(rec.Bias))
}
