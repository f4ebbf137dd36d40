package strategy

import (
	"testing"
	"time"

	"ZoneBacktester/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstruct_Bullish(t *testing.T) {
	w := []model.Bar{
		fineAt(0, 10.2, 9.8, 10.0),
		fineAt(1, 10.3, 9.9, 10.1),
		fineAt(2, 10.6, 10.0, 10.5),
	}
	tr, ok := Construct(w, 2, model.BiasBullish, 2)
	require.True(t, ok)
	assert.InDelta(t, 9.8+0.71*0.8, tr.EntryPrice, 1e-9)
	assert.Equal(t, 9.8, tr.StopPrice)
	assert.InDelta(t, tr.EntryPrice+(tr.EntryPrice-9.8)*2, tr.TargetPrice, 1e-9)
	assert.Equal(t, w[2].Time, tr.EntryTime)
	assert.Equal(t, model.BiasBullish, tr.Bias)
}

func TestConstruct_Bearish(t *testing.T) {
	w := []model.Bar{
		fineAt(0, 10.2, 9.8, 10.0),
		fineAt(1, 10.1, 9.7, 9.8),
		fineAt(2, 10.4, 9.5, 9.6),
	}
	tr, ok := Construct(w, 2, model.BiasBearish, 3)
	require.True(t, ok)
	// fine_high = 10.4 (confirmation bar), fine_low = 9.8 (two bars back)
	assert.InDelta(t, 10.4-0.71*0.6, tr.EntryPrice, 1e-9)
	assert.Equal(t, 10.4, tr.StopPrice)
	assert.InDelta(t, tr.EntryPrice-(10.4-tr.EntryPrice)*3, tr.TargetPrice, 1e-9)
	assert.Less(t, tr.TargetPrice, tr.EntryPrice)
}

func TestConstruct_DegenerateRange(t *testing.T) {
	w := []model.Bar{
		fineAt(0, 10.2, 10.0, 10.1),
		fineAt(1, 10.1, 9.9, 10.0),
		bar(day.Add(30*time.Minute), 9.95, 10.0, 9.8, 9.9),
	}
	// bearish: close 9.9 < low two back 10.0, and high 10.0 == low two back
	tr, ok := Construct(w, 2, model.BiasBearish, 2)
	assert.False(t, ok)
	assert.Equal(t, tr.StopPrice, tr.EntryPrice)
}

func longTrade() model.Trade {
	return model.Trade{EntryTime: day, Bias: model.BiasBullish, EntryPrice: 10, StopPrice: 9, TargetPrice: 12}
}

func shortTrade() model.Trade {
	return model.Trade{EntryTime: day, Bias: model.BiasBearish, EntryPrice: 10, StopPrice: 11, TargetPrice: 8}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name  string
		trade model.Trade
		bars  []model.Bar
		want  model.Outcome
		at    int
	}{
		{"long stop", longTrade(), []model.Bar{fineAt(1, 10.5, 9.5, 10), fineAt(2, 10.2, 8.9, 9)}, model.OutcomeStopLoss, 1},
		{"long target", longTrade(), []model.Bar{fineAt(1, 12, 9.5, 11.8)}, model.OutcomeTakeProfit, 0},
		{"long stop on exact level", longTrade(), []model.Bar{fineAt(1, 10, 9, 9.5)}, model.OutcomeStopLoss, 0},
		{"long both in one bar favours stop", longTrade(), []model.Bar{fineAt(1, 12.5, 8.5, 12)}, model.OutcomeStopLoss, 0},
		{"short stop", shortTrade(), []model.Bar{fineAt(1, 11, 9.5, 10.5)}, model.OutcomeStopLoss, 0},
		{"short target", shortTrade(), []model.Bar{fineAt(1, 10.5, 9, 9.5), fineAt(2, 10, 7.9, 8)}, model.OutcomeTakeProfit, 1},
		{"short both in one bar favours stop", shortTrade(), []model.Bar{fineAt(1, 11.5, 7.5, 8)}, model.OutcomeStopLoss, 0},
		{"nothing touched", longTrade(), []model.Bar{fineAt(1, 11, 9.5, 10)}, model.OutcomeTimeout, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.trade, tt.bars)
			assert.Equal(t, tt.want, got.Outcome)
			assert.Equal(t, tt.bars[tt.at].Time, got.ResolutionTime)
		})
	}
}

func TestResolve_HaltsAtFirstOutcome(t *testing.T) {
	bars := []model.Bar{fineAt(1, 12.1, 9.5, 12), fineAt(2, 10, 8, 8.5)}
	got := Resolve(longTrade(), bars)
	assert.Equal(t, model.OutcomeTakeProfit, got.Outcome)
	assert.Equal(t, bars[0].Time, got.ResolutionTime)
}

func TestResolve_LookaheadBound(t *testing.T) {
	quiet := make([]model.Bar, ResolveLookahead+5)
	for i := range quiet {
		quiet[i] = fineAt(i+1, 10.5, 9.5, 10)
	}
	hitAfter := append([]model.Bar(nil), quiet...)
	hitAfter[ResolveLookahead] = fineAt(ResolveLookahead+1, 12.5, 9.5, 12)
	got := Resolve(longTrade(), hitAfter)
	assert.Equal(t, model.OutcomeTimeout, got.Outcome, "bar 101 is beyond the lookahead")
	assert.Equal(t, quiet[ResolveLookahead-1].Time, got.ResolutionTime)

	hitLast := append([]model.Bar(nil), quiet...)
	hitLast[ResolveLookahead-1] = fineAt(ResolveLookahead, 12.5, 9.5, 12)
	assert.Equal(t, model.OutcomeTakeProfit, Resolve(longTrade(), hitLast).Outcome)
}

func TestResolve_NoBars(t *testing.T) {
	got := Resolve(longTrade(), nil)
	assert.Equal(t, model.OutcomeTimeout, got.Outcome)
	assert.Equal(t, day, got.ResolutionTime)
}
