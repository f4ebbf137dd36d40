package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"ZoneBacktester/internal/model"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// YahooFetcher pulls intraday bars from the Yahoo Finance chart API. Intraday
// history there is limited (60 days for 15m), so Range should stay short.
type YahooFetcher struct {
	BaseURL string
	Range   string
	Client  *http.Client
	// Tickers overrides the Yahoo ticker for a symbol.
	Tickers map[string]string
}

func NewYahooFetcher(rng, proxyURL string) *YahooFetcher {
	return &YahooFetcher{
		BaseURL: yahooBaseURL,
		Range:   rng,
		Client:  newHTTPClient(proxyURL),
		Tickers: map[string]string{
			"XAUUSD": "GC=F",
			"SPX500": "^GSPC",
			"US30":   "^DJI",
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// ticker maps AUDUSD style pairs to AUDUSD=X.
func (f *YahooFetcher) ticker(symbol string) string {
	if t, ok := f.Tickers[symbol]; ok {
		return t
	}
	if len(symbol) == 6 && symbol == strings.ToUpper(symbol) && !strings.ContainsAny(symbol, "^=.-") {
		return symbol + "=X"
	}
	return symbol
}

// FetchBars returns bars for interval. The chart API has no 4h interval, so
// 4h requests are built from 1h bars.
func (f *YahooFetcher) FetchBars(ctx context.Context, symbol, interval string) ([]model.Bar, error) {
	step, err := ParseInterval(interval)
	if err != nil {
		return nil, err
	}
	if step != 4*time.Hour {
		return f.chart(ctx, symbol, interval)
	}
	hourly, err := f.chart(ctx, symbol, "1h")
	if err != nil {
		return nil, err
	}
	return Resample(hourly, step), nil
}

type chartReply struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open  []*float64 `json:"open"`
			High  []*float64 `json:"high"`
			Low   []*float64 `json:"low"`
			Close []*float64 `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}

func (f *YahooFetcher) chart(ctx context.Context, symbol, interval string) ([]model.Bar, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", f.BaseURL, url.PathEscape(f.ticker(symbol)),
		url.Values{"interval": {interval}, "range": {f.Range}}.Encode())
	header := http.Header{"User-Agent": {"Mozilla/5.0"}}

	var reply chartReply
	err := getJSON(ctx, f.Client, "yahoo", endpoint, header, &reply)
	var se *StatusError
	if errors.As(err, &se) {
		// Unknown tickers come back as 404 with a chart error body.
		if json.Unmarshal([]byte(se.Body), &reply) != nil || reply.Chart.Error == nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}
	if e := reply.Chart.Error; e != nil {
		return nil, fmt.Errorf("yahoo %s %s: %s: %s", symbol, interval, e.Code, e.Description)
	}
	if len(reply.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo %s %s: %w", symbol, interval, model.ErrEmptySeries)
	}
	return reply.Chart.Result[0].bars(), nil
}

// bars zips the column arrays. Yahoo pads session gaps with null quotes;
// those rows are dropped.
func (r chartResult) bars() []model.Bar {
	if len(r.Indicators.Quote) == 0 {
		return nil
	}
	q := r.Indicators.Quote[0]
	n := min(len(r.Timestamp), len(q.Open), len(q.High), len(q.Low), len(q.Close))
	out := make([]model.Bar, 0, n)
	for i := 0; i < n; i++ {
		if q.Open[i] == nil || q.High[i] == nil || q.Low[i] == nil || q.Close[i] == nil {
			continue
		}
		out = append(out, model.Bar{
			Time:  time.Unix(r.Timestamp[i], 0).UTC(),
			Open:  *q.Open[i],
			High:  *q.High[i],
			Low:   *q.Low[i],
			Close: *q.Close[i],
		})
	}
	slices.SortStableFunc(out, func(a, b model.Bar) int { return a.Time.Compare(b.Time) })
	return out
}
