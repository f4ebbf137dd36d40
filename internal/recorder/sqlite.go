package recorder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"ZoneBacktester/internal/logger"
	"ZoneBacktester/internal/model"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists backtest runs to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the HTTP API read while a scheduled run writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Infof("sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id               TEXT PRIMARY KEY,
			created_at       INTEGER NOT NULL,
			symbol           TEXT NOT NULL,
			source           TEXT,
			risk_reward      REAL,
			initial_balance  REAL,
			final_balance    REAL,
			start_time       INTEGER,
			end_time         INTEGER,
			win_rate         REAL,
			max_drawdown_pct REAL,
			iterations       INTEGER,
			no_bias          INTEGER,
			gate_rejected    INTEGER,
			not_confirmed    INTEGER,
			degenerate       INTEGER,
			timeouts         INTEGER,
			stop_losses      INTEGER,
			take_profits     INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at)`,

		`CREATE TABLE IF NOT EXISTS trades (
			run_id          TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			seq             INTEGER NOT NULL,
			entry_time      INTEGER NOT NULL,
			bias            TEXT,
			entry_price     REAL,
			stop_price      REAL,
			target_price    REAL,
			result          TEXT,
			resolution_time INTEGER,
			PRIMARY KEY (run_id, seq)
		)`,

		`CREATE TABLE IF NOT EXISTS equity (
			run_id  TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			idx     INTEGER NOT NULL,
			balance REAL,
			PRIMARY KEY (run_id, idx)
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun stores the run summary, its trade log and equity curve in one transaction.
func (r *SQLiteRecorder) RecordRun(ctx context.Context, run *RunRecord, res *model.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	c := run.Counters
	_, err = tx.ExecContext(ctx, `INSERT INTO runs
		(id, created_at, symbol, source, risk_reward, initial_balance, final_balance,
		 start_time, end_time, win_rate, max_drawdown_pct,
		 iterations, no_bias, gate_rejected, not_confirmed, degenerate,
		 timeouts, stop_losses, take_profits)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		run.ID, run.CreatedAt.Unix(), run.Symbol, run.Source,
		run.RiskReward, run.InitialBalance, run.FinalBalance,
		run.Start.Unix(), run.End.Unix(), run.WinRate, run.MaxDrawdownPct,
		c.Iterations, c.NoBias, c.GateRejected, c.NotConfirmed, c.Degenerate,
		c.Timeouts, c.StopLosses, c.TakeProfits,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	tradeStmt, err := tx.PrepareContext(ctx, `INSERT INTO trades
		(run_id, seq, entry_time, bias, entry_price, stop_price, target_price, result, resolution_time)
		VALUES (?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare trades: %w", err)
	}
	defer tradeStmt.Close()
	for i, t := range res.Trades {
		if _, err := tradeStmt.ExecContext(ctx, run.ID, i, t.EntryTime.Unix(), t.Bias.String(),
			t.EntryPrice, t.StopPrice, t.TargetPrice, t.Outcome.Code(), t.ResolutionTime.Unix()); err != nil {
			return fmt.Errorf("insert trade %d: %w", i, err)
		}
	}

	eqStmt, err := tx.PrepareContext(ctx, `INSERT INTO equity (run_id, idx, balance) VALUES (?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare equity: %w", err)
	}
	defer eqStmt.Close()
	for i, v := range res.Equity {
		if _, err := eqStmt.ExecContext(ctx, run.ID, i, v); err != nil {
			return fmt.Errorf("insert equity %d: %w", i, err)
		}
	}

	return tx.Commit()
}

const runColumns = `id, created_at, symbol, source, risk_reward, initial_balance, final_balance,
	start_time, end_time, win_rate, max_drawdown_pct,
	iterations, no_bias, gate_rejected, not_confirmed, degenerate,
	timeouts, stop_losses, take_profits`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*RunRecord, error) {
	var run RunRecord
	var created, start, end int64
	c := &run.Counters
	err := row.Scan(&run.ID, &created, &run.Symbol, &run.Source, &run.RiskReward,
		&run.InitialBalance, &run.FinalBalance, &start, &end, &run.WinRate, &run.MaxDrawdownPct,
		&c.Iterations, &c.NoBias, &c.GateRejected, &c.NotConfirmed, &c.Degenerate,
		&c.Timeouts, &c.StopLosses, &c.TakeProfits)
	if err != nil {
		return nil, err
	}
	run.CreatedAt = time.Unix(created, 0).UTC()
	run.Start = time.Unix(start, 0).UTC()
	run.End = time.Unix(end, 0).UTC()
	return &run, nil
}

// ListRuns returns the most recent runs first. limit <= 0 means no limit.
func (r *SQLiteRecorder) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, *run)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}

func (r *SQLiteRecorder) Trades(ctx context.Context, id string) ([]model.Trade, error) {
	if _, err := r.GetRun(ctx, id); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, `SELECT entry_time, bias, entry_price, stop_price, target_price,
		result, resolution_time FROM trades WHERE run_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var out []model.Trade
	for rows.Next() {
		var t model.Trade
		var entry, resolved int64
		var bias, result string
		if err := rows.Scan(&entry, &bias, &t.EntryPrice, &t.StopPrice, &t.TargetPrice, &result, &resolved); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		t.EntryTime = time.Unix(entry, 0).UTC()
		t.ResolutionTime = time.Unix(resolved, 0).UTC()
		t.Bias = model.ParseBias(bias)
		t.Outcome = model.ParseOutcome(result)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Equity(ctx context.Context, id string) ([]float64, error) {
	if _, err := r.GetRun(ctx, id); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, `SELECT balance FROM equity WHERE run_id = ? ORDER BY idx`, id)
	if err != nil {
		return nil, fmt.Errorf("query equity: %w", err)
	}
	defer rows.Close()

	var out []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan equity: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	logger.Infof("closing sqlite recorder")
	return r.db.Close()
}
