package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"ZoneBacktester/internal/collector"
	"ZoneBacktester/internal/fund"
	"ZoneBacktester/internal/logger"
	"ZoneBacktester/internal/model"
	"ZoneBacktester/internal/notifier"
	"ZoneBacktester/internal/recorder"
	"ZoneBacktester/internal/report"
	"ZoneBacktester/internal/strategy"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// ErrRunInProgress is returned when a run is requested while another is executing.
var ErrRunInProgress = errors.New("a backtest run is already in progress")

// Options configures what a run produces besides the engine result.
type Options struct {
	Params    strategy.Params
	Source    string
	OutputDir string
	Format    string
	Charts    bool
	StateFile string
}

// Outcome is everything one pipeline run produced.
type Outcome struct {
	RunID   string
	Result  *model.Result
	Summary report.Summary
	Files   []string
}

// Scheduler runs the backtest pipeline on demand and on a cron schedule.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Notifier  notifier.Notifier
	Recorder  recorder.Recorder
	Opts      Options
	Ctx       context.Context

	mu  sync.Mutex
	now func() time.Time
}

// NewScheduler creates a new Scheduler. tn may be nil when notifications are disabled.
func NewScheduler(ctx context.Context, col *collector.Collector, tn notifier.Notifier, rec recorder.Recorder, opts Options) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Collector: col,
		Notifier:  tn,
		Recorder:  rec,
		Opts:      opts,
		Ctx:       ctx,
		now:       time.Now,
	}
}

// RegisterCron schedules RunOnce with a six-field (seconds first) cron spec.
func (s *Scheduler) RegisterCron(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.cronTask); err != nil {
		return fmt.Errorf("register backtest task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	logger.Infof("scheduler started")
}

// Stop stops the cron scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	logger.Infof("scheduler stopped")
}

func (s *Scheduler) cronTask() {
	if _, err := s.RunOnce(s.Ctx); err != nil && !errors.Is(err, ErrRunInProgress) {
		logger.Errorf("scheduled run: %v", err)
	}
}

// RunOnce executes collect, backtest, record, export, chart, state and notify.
// Only one run executes at a time; a concurrent call returns ErrRunInProgress.
func (s *Scheduler) RunOnce(ctx context.Context) (*Outcome, error) {
	if !s.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.mu.Unlock()

	runID := uuid.NewString()
	started := s.now()
	logger.Infof("run %s: starting %s backtest", runID, s.Collector.Symbol)

	ds, err := s.Collector.Collect(ctx)
	if err != nil {
		s.trySend(ctx, notifier.FormatError("collect", err))
		return nil, fmt.Errorf("collect: %w", err)
	}

	res, err := strategy.Run(ctx, ds, s.Opts.Params)
	if err != nil {
		s.trySend(ctx, notifier.FormatError("backtest", err))
		return nil, fmt.Errorf("backtest: %w", err)
	}
	out := &Outcome{RunID: runID, Result: res, Summary: report.Summarize(res)}

	if err := s.Recorder.RecordRun(ctx, s.runRecord(runID, started, out), res); err != nil {
		logger.Errorf("run %s: record: %v", runID, err)
	}

	prefix := fmt.Sprintf("%s_%s", strings.ToLower(res.Symbol), runID[:8])
	if s.Opts.OutputDir != "" {
		if ex := report.NewExporter(s.Opts.Format); ex != nil {
			paths, err := report.Export(ex, s.Opts.OutputDir, prefix, res)
			if err != nil {
				s.trySend(ctx, notifier.FormatError("export", err))
				return out, fmt.Errorf("export: %w", err)
			}
			out.Files = append(out.Files, paths.Trades, paths.Equity)
		}
		if s.Opts.Charts {
			path, err := report.WritePage(s.Opts.OutputDir, prefix, res, ds.Fine)
			if err != nil {
				logger.Errorf("run %s: chart: %v", runID, err)
			} else {
				out.Files = append(out.Files, path)
			}
		}
	}

	if s.Opts.StateFile != "" {
		if err := fund.SaveState(s.Opts.StateFile, stateFrom(runID, out.Summary)); err != nil {
			logger.Errorf("run %s: save state: %v", runID, err)
		}
	}

	sum := out.Summary
	logger.Infof("run %s: %d trades (%d TP / %d SL), balance %.2f -> %.2f in %v",
		runID, sum.Trades, sum.Wins, sum.Losses, sum.InitialBalance, sum.FinalBalance, s.now().Sub(started).Round(time.Millisecond))
	s.trySend(ctx, notifier.FormatRunReport(runID, sum, out.Files))
	return out, nil
}

func (s *Scheduler) runRecord(runID string, started time.Time, out *Outcome) *recorder.RunRecord {
	res := out.Result
	return &recorder.RunRecord{
		ID:             runID,
		CreatedAt:      started.UTC().Truncate(time.Second),
		Symbol:         res.Symbol,
		Source:         s.Opts.Source,
		RiskReward:     res.RiskReward,
		InitialBalance: res.InitialBalance,
		FinalBalance:   res.FinalBalance,
		Start:          res.Start,
		End:            res.End,
		WinRate:        out.Summary.WinRate,
		MaxDrawdownPct: out.Summary.MaxDrawdownPct,
		Counters:       res.Counters,
	}
}

func stateFrom(runID string, sum report.Summary) *fund.State {
	return &fund.State{
		RunID:          runID,
		Symbol:         sum.Symbol,
		RiskReward:     sum.RiskReward,
		InitialBalance: sum.InitialBalance,
		FinalBalance:   sum.FinalBalance,
		Trades:         sum.Trades,
		Wins:           sum.Wins,
		Losses:         sum.Losses,
		Timeouts:       sum.Timeouts,
		WinRate:        sum.WinRate,
		ReturnPct:      sum.ReturnPct,
		MaxDrawdownPct: sum.MaxDrawdownPct,
		ProfitFactor:   sum.ProfitFactor,
	}
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch commandName(command) {
	case "/run":
		if _, err := s.RunOnce(s.Ctx); err != nil {
			if errors.Is(err, ErrRunInProgress) {
				return "⏳ A backtest is already running."
			}
			logger.Errorf("command run: %v", err)
		}
		// The run report (or failure) has already been sent.
		return ""
	case "/last":
		state, err := fund.LoadState(s.Opts.StateFile)
		if err != nil {
			return notifier.FormatError("load last run", err)
		}
		return notifier.FormatLastRun(state)
	default:
		return notifier.FormatHelp()
	}
}

// commandName extracts "/run" from inputs such as "/run@ZoneBot now".
func commandName(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	name, _, _ := strings.Cut(fields[0], "@")
	return strings.ToLower(name)
}

func (s *Scheduler) trySend(ctx context.Context, text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.Notify(ctx, text); err != nil {
		logger.Errorf("send notification: %v", err)
	}
}
