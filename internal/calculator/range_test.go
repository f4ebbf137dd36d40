package calculator

import (
	"testing"
	"time"

	"ZoneBacktester/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestRetracement(t *testing.T) {
	assert.InDelta(t, 1.5, Retracement(1, 2, 0.5), 1e-12)
	assert.InDelta(t, 1.5, Retracement(2, 1, 0.5), 1e-12)
	assert.InDelta(t, 1.71, Retracement(1, 2, EntryLevel), 1e-12)
	assert.InDelta(t, 1.29, Retracement(2, 1, EntryLevel), 1e-12)
	assert.Equal(t, 3.0, Retracement(3, 3, EntryLevel))
}

func TestNewSetup_Orientation(t *testing.T) {
	bar := model.Bar{Time: time.Unix(0, 0), Open: 1.2, High: 1.4, Low: 1.0, Close: 1.1}

	bull := NewSetup(3, bar, model.BiasBullish)
	assert.Equal(t, 1.0, bull.FibLow)
	assert.Equal(t, 1.4, bull.FibHigh)
	assert.InDelta(t, 1.2, bull.Fib50, 1e-12)
	assert.Equal(t, 3, bull.CoarseIndex)

	bear := NewSetup(4, bar, model.BiasBearish)
	assert.Equal(t, 1.4, bear.FibLow)
	assert.Equal(t, 1.0, bear.FibHigh)
	assert.InDelta(t, 1.2, bear.Fib50, 1e-12)
}

func TestCrossed(t *testing.T) {
	bar := model.Bar{High: 2, Low: 1}
	bull := NewSetup(0, bar, model.BiasBullish)
	bear := NewSetup(0, bar, model.BiasBearish)

	assert.True(t, Crossed(bull, 1.5), "close on the level is crossed")
	assert.True(t, Crossed(bull, 1.9))
	assert.False(t, Crossed(bull, 1.49))

	assert.True(t, Crossed(bear, 1.5))
	assert.True(t, Crossed(bear, 1.1))
	assert.False(t, Crossed(bear, 1.51))

	assert.True(t, Crossed(model.Setup{Bias: model.BiasNone}, 1.5))
}
