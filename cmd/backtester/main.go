package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"ZoneBacktester/internal/collector"
	"ZoneBacktester/internal/config"
	"ZoneBacktester/internal/logger"
	"ZoneBacktester/internal/notifier"
	"ZoneBacktester/internal/recorder"
	"ZoneBacktester/internal/scheduler"
	"ZoneBacktester/internal/strategy"
	"ZoneBacktester/internal/transport/httpapi"
)

func main() {
	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Errorf("load config: %v", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Errorf("config validation: %v", err)
		os.Exit(1)
	}

	logger.SetLevel(cfg.Log.Level)
	if cfg.Log.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Log.Path), 0o755); err != nil {
			logger.Errorf("create log dir: %v", err)
			os.Exit(1)
		}
		f, err := os.OpenFile(cfg.Log.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			logger.Errorf("open log file: %v", err)
			os.Exit(1)
		}
		defer f.Close()
		logger.SetOutput(io.MultiWriter(os.Stdout, f))
	}
	logger.Infof("ZoneBacktester starting, config %s", cfgPath)

	// Init fetcher
	var fetcher collector.Fetcher
	switch cfg.Data.Source {
	case config.SourceHTTP:
		fetcher = collector.NewHTTPFetcher(cfg.Data.BaseURL, cfg.Data.APIKey, cfg.Proxy)
	case config.SourceYahoo:
		fetcher = collector.NewYahooFetcher(cfg.Data.Range, cfg.Proxy)
	default:
		fetcher = collector.NewCSVFetcher(cfg.Data.CoarseInterval, cfg.Data.CoarsePath, cfg.Data.FineInterval, cfg.Data.FinePath)
	}
	logger.Infof("data source: %s", fetcher.Name())
	col := collector.NewCollector(fetcher, cfg.Data.Symbol, cfg.Data.CoarseInterval, cfg.Data.FineInterval)

	// Init recorder
	var store recorder.Store
	if cfg.Database.SQLitePath != "" {
		if dir := filepath.Dir(cfg.Database.SQLitePath); dir != "." {
			_ = os.MkdirAll(dir, 0o755)
		}
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			logger.Warnf("init sqlite recorder failed, using noop: %v", err)
			store = recorder.NewNoopRecorder()
		} else {
			store = sr
			defer sr.Close()
		}
	} else {
		store = recorder.NewNoopRecorder()
	}

	// Init Telegram notifier
	var tn *notifier.TelegramNotifier
	var n notifier.Notifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		n = tn
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.NewScheduler(ctx, col, n, store, scheduler.Options{
		Params: strategy.Params{
			RiskReward:     cfg.Strategy.RiskRewardRatio,
			InitialBalance: cfg.Strategy.InitialBalance,
			Workers:        cfg.Strategy.Workers,
		},
		Source:    cfg.Data.Source,
		OutputDir: cfg.Output.Dir,
		Format:    cfg.Output.Format,
		Charts:    cfg.Output.Charts,
		StateFile: cfg.StateFile,
	})

	// Without a schedule this is a one-shot backtest.
	if cfg.Schedule.Cron == "" {
		out, err := sched.RunOnce(ctx)
		if err != nil {
			logger.Errorf("backtest failed: %v", err)
			os.Exit(1)
		}
		for _, f := range out.Files {
			logger.Infof("wrote %s", f)
		}
		return
	}

	if err := sched.RegisterCron(cfg.Schedule.Cron); err != nil {
		logger.Errorf("register cron task: %v", err)
		os.Exit(1)
	}
	sched.Start()
	defer sched.Stop()

	if cfg.HTTP.Addr != "" {
		srv := httpapi.NewServer(cfg.HTTP.Addr, store, sched)
		go func() {
			if err := srv.Start(ctx); err != nil {
				logger.Errorf("http api: %v", err)
			}
		}()
	}

	if tn != nil {
		go tn.Listen(ctx, sched.HandleCommand)
		logger.Infof("telegram command listener started")
	}

	if os.Getenv("RUN_ON_START") == "true" {
		logger.Infof("RUN_ON_START enabled, executing backtest now")
		go sched.HandleCommand("/run")
	}

	logger.Infof("ZoneBacktester is running on schedule %q. Press Ctrl+C to stop.", cfg.Schedule.Cron)

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Infof("shutdown signal received, stopping...")
	cancel()
}
