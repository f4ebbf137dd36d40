package strategy

import (
	"testing"
	"time"

	"ZoneBacktester/internal/model"

	"github.com/stretchr/testify/assert"
)

func fineAt(i int, h, l, c float64) model.Bar {
	return bar(day.Add(time.Duration(i)*15*time.Minute), (h+l)/2, h, l, c)
}

func TestScan_Bullish(t *testing.T) {
	w := []model.Bar{
		fineAt(0, 10.2, 9.8, 10.0),
		fineAt(1, 10.3, 9.9, 10.2),
		fineAt(2, 10.3, 10.0, 10.2), // equal to high two back: no break
		fineAt(3, 10.6, 10.1, 10.5),
		fineAt(4, 11.0, 10.4, 10.9),
	}
	assert.Equal(t, ScanResult{Kind: ScanConfirmed, Index: 3}, Scan(w, model.BiasBullish))
}

func TestScan_Bearish(t *testing.T) {
	w := []model.Bar{
		fineAt(0, 10.2, 9.8, 10.0),
		fineAt(1, 10.1, 9.7, 9.8),
		fineAt(2, 10.0, 9.6, 9.7),
	}
	assert.Equal(t, ScanResult{Kind: ScanConfirmed, Index: 2}, Scan(w, model.BiasBearish))
	assert.Equal(t, ScanNotFound, Scan(w, model.BiasBullish).Kind)
}

func TestScan_ShortWindow(t *testing.T) {
	assert.Equal(t, ScanEmpty, Scan(nil, model.BiasBullish).Kind)
	w := []model.Bar{fineAt(0, 1, 0.5, 0.8), fineAt(1, 2, 1, 1.9)}
	assert.Equal(t, ScanEmpty, Scan(w, model.BiasBullish).Kind)
}

func TestScan_FirstConfirmationWins(t *testing.T) {
	w := []model.Bar{
		fineAt(0, 10.0, 9.0, 9.5),
		fineAt(1, 10.0, 9.0, 9.5),
		fineAt(2, 10.5, 9.5, 10.1),
		fineAt(3, 11.5, 10.0, 11.0),
	}
	got := Scan(w, model.BiasBullish)
	assert.Equal(t, 2, got.Index)
}
