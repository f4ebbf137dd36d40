package collector

import (
	"context"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"ZoneBacktester/internal/model"
)

// HTTPFetcher reads bars from a JSON bar service:
//
//	GET {BaseURL}/api/v1/bars?symbol=EURUSD&interval=15m
//	[{"timestamp":1704153600,"open":1.1,"high":1.2,"low":1.0,"close":1.15}, ...]
//
// Timestamps are Unix seconds.
type HTTPFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

func NewHTTPFetcher(baseURL, apiKey, proxyURL string) *HTTPFetcher {
	return &HTTPFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL),
	}
}

func (f *HTTPFetcher) Name() string { return "http" }

type wireBar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
}

func (f *HTTPFetcher) FetchBars(ctx context.Context, symbol, interval string) ([]model.Bar, error) {
	endpoint := f.BaseURL + "/api/v1/bars?" + url.Values{
		"symbol":   {symbol},
		"interval": {interval},
	}.Encode()
	header := http.Header{}
	if f.APIKey != "" {
		header.Set("Authorization", "Bearer "+f.APIKey)
	}

	var rows []wireBar
	if err := getJSON(ctx, f.Client, "bar service", endpoint, header, &rows); err != nil {
		return nil, err
	}
	bars := make([]model.Bar, 0, len(rows))
	for _, r := range rows {
		bars = append(bars, model.Bar{
			Time: time.Unix(r.Timestamp, 0).UTC(),
			Open: r.Open, High: r.High, Low: r.Low, Close: r.Close,
		})
	}
	slices.SortStableFunc(bars, func(a, b model.Bar) int { return a.Time.Compare(b.Time) })
	return bars, nil
}
