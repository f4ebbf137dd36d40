package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"ZoneBacktester/internal/model"

	"github.com/parquet-go/parquet-go"
)

// EquityPoint is one row of the exported equity curve.
type EquityPoint struct {
	Index   int     `json:"index" parquet:"index"`
	Balance float64 `json:"balance" parquet:"balance"`
}

// EquityPoints numbers the samples of an equity curve from zero.
func EquityPoints(equity []float64) []EquityPoint {
	out := make([]EquityPoint, len(equity))
	for i, v := range equity {
		out[i] = EquityPoint{Index: i, Balance: v}
	}
	return out
}

// Exporter writes the trade log and equity curve in one file format.
type Exporter interface {
	SaveTrades(rows []model.TradeRecord, path string) error
	SaveEquity(points []EquityPoint, path string) error
	Extension() string
}

// NewExporter returns the implementation for format (csv, json, parquet), or nil if unsupported.
func NewExporter(format string) Exporter {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv":
		return CSVExporter{}
	case "json":
		return JSONExporter{}
	case "parquet":
		return ParquetExporter{}
	default:
		return nil
	}
}

// Paths of the files written by Export.
type Paths struct {
	Trades string
	Equity string
}

// Export writes <prefix>_trades.<ext> and <prefix>_equity.<ext> into dir.
func Export(ex Exporter, dir, prefix string, res *model.Result) (Paths, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Paths{}, fmt.Errorf("create output dir: %w", err)
	}
	p := Paths{
		Trades: filepath.Join(dir, fmt.Sprintf("%s_trades.%s", prefix, ex.Extension())),
		Equity: filepath.Join(dir, fmt.Sprintf("%s_equity.%s", prefix, ex.Extension())),
	}
	if err := ex.SaveTrades(res.TradeLog(), p.Trades); err != nil {
		return Paths{}, fmt.Errorf("save trades: %w", err)
	}
	if err := ex.SaveEquity(EquityPoints(res.Equity), p.Equity); err != nil {
		return Paths{}, fmt.Errorf("save equity: %w", err)
	}
	return p, nil
}

// CSVExporter writes comma-separated files with a header row.
type CSVExporter struct{}

func (CSVExporter) Extension() string { return "csv" }

func (CSVExporter) SaveTrades(rows []model.TradeRecord, path string) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{r.Time, r.Bias, floatStr(r.Entry), floatStr(r.TP), floatStr(r.SL), r.Result})
	}
	return writeCSV(path, []string{"time", "bias", "entry", "tp", "sl", "result"}, records)
}

func (CSVExporter) SaveEquity(points []EquityPoint, path string) error {
	records := make([][]string, 0, len(points))
	for _, p := range points {
		records = append(records, []string{strconv.Itoa(p.Index), floatStr(p.Balance)})
	}
	return writeCSV(path, []string{"index", "balance"}, records)
}

func writeCSV(path string, header []string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(records); err != nil {
		return err
	}
	return f.Close()
}

func floatStr(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// JSONExporter writes indented JSON arrays.
type JSONExporter struct{}

func (JSONExporter) Extension() string { return "json" }

func (JSONExporter) SaveTrades(rows []model.TradeRecord, path string) error {
	if rows == nil {
		rows = []model.TradeRecord{}
	}
	return writeJSON(path, rows)
}

func (JSONExporter) SaveEquity(points []EquityPoint, path string) error {
	return writeJSON(path, points)
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return f.Close()
}

// ParquetExporter writes Parquet files.
type ParquetExporter struct{}

func (ParquetExporter) Extension() string { return "parquet" }

func (ParquetExporter) SaveTrades(rows []model.TradeRecord, path string) error {
	return parquet.WriteFile(path, rows)
}

func (ParquetExporter) SaveEquity(points []EquityPoint, path string) error {
	return parquet.WriteFile(path, points)
}
