package collector

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"ZoneBacktester/internal/model"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// MetaTrader exports split the timestamp into <DATE> and <TIME> columns.
const mt5Layout = "2006.01.02 15:04:05"

var genericLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02 15:04", "2006.01.02 15:04:05"}

// CSVFetcher reads bars from local files. Paths maps an interval label to a file.
type CSVFetcher struct {
	Paths    map[string]string
	Location *time.Location
}

// NewCSVFetcher creates a fetcher for the given coarse and fine files.
func NewCSVFetcher(coarseInterval, coarsePath, fineInterval, finePath string) *CSVFetcher {
	return &CSVFetcher{
		Paths: map[string]string{
			coarseInterval: coarsePath,
			fineInterval:   finePath,
		},
		Location: time.UTC,
	}
}

func (f *CSVFetcher) Name() string { return "csv" }

func (f *CSVFetcher) FetchBars(ctx context.Context, _ string, interval string) ([]model.Bar, error) {
	path, ok := f.Paths[interval]
	if !ok || path == "" {
		return nil, fmt.Errorf("csv: no file configured for interval %s", interval)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: %w", err)
	}
	defer file.Close()

	bars, err := ParseCSV(file, f.Location)
	if err != nil {
		return nil, fmt.Errorf("csv %s: %w", path, err)
	}
	return bars, nil
}

// ParseCSV decodes a MetaTrader tab-separated export or a generic
// Date,Open,High,Low,Close file. UTF-16 input with a byte order mark is
// transcoded first. Rows are returned sorted by time.
func ParseCSV(r io.Reader, loc *time.Location) ([]model.Bar, error) {
	if loc == nil {
		loc = time.UTC
	}
	br := bufio.NewReader(r)
	if b, _ := br.Peek(2); len(b) == 2 && ((b[0] == 0xFF && b[1] == 0xFE) || (b[0] == 0xFE && b[1] == 0xFF)) {
		dec := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()
		br = bufio.NewReader(transform.NewReader(br, dec))
	}

	head, err := br.Peek(4096)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, err
	}
	cr := csv.NewReader(br)
	cr.Comma = sniffDelimiter(head)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, model.ErrEmptySeries
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	var bars []model.Bar
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		b, err := cols.parse(rec, loc)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		bars = append(bars, b)
	}
	if len(bars) == 0 {
		return nil, model.ErrEmptySeries
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

func sniffDelimiter(head []byte) rune {
	line := head
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		line = head[:i]
	}
	best, bestN := ',', 0
	for _, d := range []rune{'\t', ';', ','} {
		if n := bytes.Count(line, []byte(string(d))); n > bestN {
			best, bestN = d, n
		}
	}
	return best
}

type columns struct {
	date, clock            int
	open, high, low, close int
}

func mapColumns(header []string) (columns, error) {
	c := columns{date: -1, clock: -1, open: -1, high: -1, low: -1, close: -1}
	for i, h := range header {
		name := strings.ToLower(strings.Trim(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")), "<>"))
		switch name {
		case "date", "datetime", "time_utc", "timestamp":
			c.date = i
		case "time":
			c.clock = i
		case "open":
			c.open = i
		case "high":
			c.high = i
		case "low":
			c.low = i
		case "close":
			c.close = i
		}
	}
	// A lone "time" column carries the full timestamp.
	if c.date < 0 && c.clock >= 0 {
		c.date, c.clock = c.clock, -1
	}
	if c.date < 0 || c.open < 0 || c.high < 0 || c.low < 0 || c.close < 0 {
		return c, fmt.Errorf("header %q: missing date/open/high/low/close column", strings.Join(header, ","))
	}
	return c, nil
}

func (c columns) parse(rec []string, loc *time.Location) (model.Bar, error) {
	need := max(c.date, c.clock, c.open, c.high, c.low, c.close)
	if len(rec) <= need {
		return model.Bar{}, fmt.Errorf("expected at least %d fields, got %d", need+1, len(rec))
	}
	ts, err := c.parseTime(rec, loc)
	if err != nil {
		return model.Bar{}, err
	}
	var px [4]float64
	for i, idx := range [...]int{c.open, c.high, c.low, c.close} {
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[idx]), 64)
		if err != nil {
			return model.Bar{}, fmt.Errorf("%w: price %q", model.ErrMalformedBar, rec[idx])
		}
		px[i] = v
	}
	return model.Bar{Time: ts, Open: px[0], High: px[1], Low: px[2], Close: px[3]}, nil
}

func (c columns) parseTime(rec []string, loc *time.Location) (time.Time, error) {
	raw := strings.TrimSpace(rec[c.date])
	if c.clock >= 0 {
		raw += " " + strings.TrimSpace(rec[c.clock])
		if ts, err := time.ParseInLocation(mt5Layout, raw, loc); err == nil {
			return ts, nil
		}
	}
	for _, layout := range genericLayouts {
		if ts, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return ts, nil
		}
	}
	if sec, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if sec > 1e12 {
			return time.UnixMilli(sec).In(loc), nil
		}
		return time.Unix(sec, 0).In(loc), nil
	}
	return time.Time{}, fmt.Errorf("%w: timestamp %q", model.ErrMalformedBar, raw)
}
