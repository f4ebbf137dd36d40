package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ZoneBacktester/internal/model"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

const (
	colorBull   = "#34d399"
	colorBear   = "#f87171"
	colorEquity = "#3b82f6"
	colorEntry  = "#fbbf24"

	chartWidth  = "1400px"
	chartHeight = "560px"

	// maxChartBars bounds the candlestick chart to the most recent bars.
	maxChartBars = 3000
	chartPadding = 2 * time.Hour
)

// RenderEquityChart draws the balance after every evaluated coarse bar.
func RenderEquityChart(title string, equity []float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: title,
			Theme:     types.ThemeWesteros,
			Width:     chartWidth,
			Height:    chartHeight,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("%d samples, max drawdown %.2f%%", len(equity), MaxDrawdownPct(equity)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", XAxisIndex: []int{0}}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true)}),
	)

	xAxis := make([]string, len(equity))
	data := make([]opts.LineData, len(equity))
	for i, v := range equity {
		xAxis[i] = fmt.Sprintf("%d", i)
		data[i] = opts.LineData{Value: round(v, 2)}
	}
	line.SetXAxis(xAxis).AddSeries("Balance", data,
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
		charts.WithLineStyleOpts(opts.LineStyle{Color: colorEquity, Width: 2}),
	)
	return line
}

// RenderTradeChart draws fine candlesticks spanning the trade log with entry
// triangles and exit circles; take profits are green, stop losses red.
func RenderTradeChart(symbol string, fine *model.Series, trades []model.Trade) *charts.Kline {
	bars := chartBars(fine, trades)

	kline := charts.NewKLine()
	kline.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:  types.ThemeWesteros,
			Width:  chartWidth,
			Height: chartHeight,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("%s %s", strings.ToUpper(symbol), fine.Name),
			Subtitle: fmt.Sprintf("%d trades", len(trades)),
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", XAxisIndex: []int{0}}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category"}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true)}),
	)
	kline.SetSeriesOptions(
		charts.WithItemStyleOpts(opts.ItemStyle{
			Color:        colorBull,
			Color0:       colorBear,
			BorderColor:  colorBull,
			BorderColor0: colorBear,
		}),
	)

	xAxis := make([]string, len(bars))
	data := make([]opts.KlineData, len(bars))
	index := make(map[int64]int, len(bars))
	for i, b := range bars {
		xAxis[i] = b.Time.UTC().Format("01-02 15:04")
		data[i] = opts.KlineData{Value: [4]float64{b.Open, b.Close, b.Low, b.High}}
		index[b.Time.Unix()] = i
	}
	kline.SetXAxis(xAxis)
	kline.AddSeries("Price", data)

	markers := newMarkerSet(len(bars))
	for _, t := range trades {
		markers.add(index, t)
	}
	kline.Overlap(markers.scatter())
	return kline
}

// chartBars picks the fine bars from just before the first entry to just after
// the last resolution, keeping at most maxChartBars of the most recent ones.
func chartBars(fine *model.Series, trades []model.Trade) []model.Bar {
	var bars []model.Bar
	if len(trades) == 0 {
		bars = fine.Bars()
	} else {
		from := trades[0].EntryTime.Add(-chartPadding)
		to := trades[len(trades)-1].ResolutionTime.Add(chartPadding)
		bars = fine.Range(from, to)
	}
	if len(bars) > maxChartBars {
		bars = bars[len(bars)-maxChartBars:]
	}
	return bars
}

type markerSet struct {
	tpEntry, slEntry, tpExit, slExit []opts.ScatterData
}

func newMarkerSet(n int) *markerSet {
	blank := func() []opts.ScatterData { return make([]opts.ScatterData, n) }
	return &markerSet{tpEntry: blank(), slEntry: blank(), tpExit: blank(), slExit: blank()}
}

func (m *markerSet) add(index map[int64]int, t model.Trade) {
	entry, entryOK := index[t.EntryTime.Unix()]
	exit, exitOK := index[t.ResolutionTime.Unix()]

	entries, exits, exitPrice := m.tpEntry, m.tpExit, t.TargetPrice
	if t.Outcome == model.OutcomeStopLoss {
		entries, exits, exitPrice = m.slEntry, m.slExit, t.StopPrice
	}
	symbolRotate := 0
	if t.Bias == model.BiasBearish {
		symbolRotate = 180
	}
	if entryOK {
		entries[entry] = opts.ScatterData{Value: round(t.EntryPrice, 5), Symbol: "triangle", SymbolSize: 12, SymbolRotate: symbolRotate}
	}
	if exitOK {
		exits[exit] = opts.ScatterData{Value: round(exitPrice, 5), Symbol: "circle", SymbolSize: 10}
	}
}

func (m *markerSet) scatter() *charts.Scatter {
	sc := charts.NewScatter()
	sc.AddSeries("TP entry", m.tpEntry, charts.WithItemStyleOpts(opts.ItemStyle{Color: colorBull, BorderColor: colorEntry}))
	sc.AddSeries("SL entry", m.slEntry, charts.WithItemStyleOpts(opts.ItemStyle{Color: colorBear, BorderColor: colorEntry}))
	sc.AddSeries("TP exit", m.tpExit, charts.WithItemStyleOpts(opts.ItemStyle{Color: colorBull}))
	sc.AddSeries("SL exit", m.slExit, charts.WithItemStyleOpts(opts.ItemStyle{Color: colorBear}))
	return sc
}

// RenderPage writes an HTML page with the equity curve and, when fine is
// non-nil, the trade chart.
func RenderPage(w io.Writer, res *model.Result, fine *model.Series) error {
	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)
	page.AddCharts(RenderEquityChart(fmt.Sprintf("%s equity (RR %.2f)", res.Symbol, res.RiskReward), res.Equity))
	if fine != nil && fine.Len() > 0 {
		page.AddCharts(RenderTradeChart(res.Symbol, fine, res.Trades))
	}
	return page.Render(w)
}

// WritePage renders the report page to <dir>/<prefix>_report.html and returns its path.
func WritePage(dir, prefix string, res *model.Result, fine *model.Series) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, prefix+"_report.html")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := RenderPage(f, res, fine); err != nil {
		return "", fmt.Errorf("render page: %w", err)
	}
	return path, f.Close()
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
