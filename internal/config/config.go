package config

import (
	"fmt"
	"math"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Strategy struct {
		RiskRewardRatio float64 `yaml:"risk_reward_ratio"`
		InitialBalance  float64 `yaml:"initial_balance"`
		Workers         int     `yaml:"workers"`
	} `yaml:"strategy"`
	Data struct {
		Source         string `yaml:"source"`
		Symbol         string `yaml:"symbol"`
		CoarsePath     string `yaml:"coarse_path"`
		FinePath       string `yaml:"fine_path"`
		CoarseInterval string `yaml:"coarse_interval"`
		FineInterval   string `yaml:"fine_interval"`
		BaseURL        string `yaml:"base_url"`
		APIKey         string `yaml:"api_key"`
		Range          string `yaml:"range"`
	} `yaml:"data"`
	Output struct {
		Dir    string `yaml:"dir"`
		Format string `yaml:"format"`
		Charts bool   `yaml:"charts"`
	} `yaml:"output"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		Cron string `yaml:"cron"`
	} `yaml:"schedule"`
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Log struct {
		Level string `yaml:"level"`
		Path  string `yaml:"path"`
	} `yaml:"log"`
	StateFile string `yaml:"state_file"`
	Proxy     string `yaml:"proxy"`
}

// Data sources.
const (
	SourceCSV   = "csv"
	SourceYahoo = "yahoo"
	SourceHTTP  = "http"
)

// riskRewardSteps is the number of risk_reward_ratio increments per unit (0.05 steps).
const riskRewardSteps = 20

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.Output.Charts = true

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	cfg.Strategy.RiskRewardRatio = SnapRiskReward(cfg.Strategy.RiskRewardRatio)

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	str := map[string]*string{
		"DATA_SOURCE":        &cfg.Data.Source,
		"SYMBOL":             &cfg.Data.Symbol,
		"COARSE_PATH":        &cfg.Data.CoarsePath,
		"FINE_PATH":          &cfg.Data.FinePath,
		"OUTPUT_DIR":         &cfg.Output.Dir,
		"OUTPUT_FORMAT":      &cfg.Output.Format,
		"SQLITE_PATH":        &cfg.Database.SQLitePath,
		"TELEGRAM_BOT_TOKEN": &cfg.Telegram.BotToken,
		"TELEGRAM_CHAT_ID":   &cfg.Telegram.ChatID,
		"CRON_SCHEDULE":      &cfg.Schedule.Cron,
		"HTTP_ADDR":          &cfg.HTTP.Addr,
		"LOG_LEVEL":          &cfg.Log.Level,
		"HTTPS_PROXY":        &cfg.Proxy,
	}
	for key, dst := range str {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	num := map[string]*float64{
		"RISK_REWARD_RATIO": &cfg.Strategy.RiskRewardRatio,
		"INITIAL_BALANCE":   &cfg.Strategy.InitialBalance,
	}
	for key, dst := range num {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("env %s: %w", key, err)
		}
		*dst = f
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Strategy.RiskRewardRatio == 0 {
		cfg.Strategy.RiskRewardRatio = 2.45
	}
	if cfg.Strategy.InitialBalance == 0 {
		cfg.Strategy.InitialBalance = 10000
	}
	if cfg.Strategy.Workers == 0 {
		cfg.Strategy.Workers = 1
	}
	if cfg.Data.Source == "" {
		cfg.Data.Source = SourceCSV
	}
	if cfg.Data.Symbol == "" {
		cfg.Data.Symbol = "AUDUSD"
	}
	if cfg.Data.CoarseInterval == "" {
		cfg.Data.CoarseInterval = "4h"
	}
	if cfg.Data.FineInterval == "" {
		cfg.Data.FineInterval = "15m"
	}
	if cfg.Data.Range == "" {
		cfg.Data.Range = "60d"
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "output"
	}
	if cfg.Output.Format == "" {
		cfg.Output.Format = "csv"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/backtests.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.StateFile == "" {
		cfg.StateFile = "data/last_run.json"
	}
}

// SnapRiskReward rounds r to the nearest 0.05.
func SnapRiskReward(r float64) float64 {
	return math.Round(r*riskRewardSteps) / riskRewardSteps
}

// Validate checks value domains and source-specific required fields.
func (c *Config) Validate() error {
	if r := c.Strategy.RiskRewardRatio; r < 1.0 || r > 5.0 {
		return fmt.Errorf("strategy.risk_reward_ratio must be within [1.0, 5.0], got %.2f", r)
	}
	if c.Strategy.InitialBalance <= 0 {
		return fmt.Errorf("strategy.initial_balance must be positive")
	}
	if c.Strategy.Workers < 1 {
		return fmt.Errorf("strategy.workers must be at least 1")
	}
	switch c.Data.Source {
	case SourceCSV:
		if c.Data.CoarsePath == "" || c.Data.FinePath == "" {
			return fmt.Errorf("data.coarse_path and data.fine_path are required for csv source")
		}
	case SourceHTTP:
		if c.Data.BaseURL == "" {
			return fmt.Errorf("data.base_url is required for http source")
		}
	case SourceYahoo:
	default:
		return fmt.Errorf("data.source %q is not one of csv, yahoo, http", c.Data.Source)
	}
	switch c.Output.Format {
	case "csv", "json", "parquet":
	default:
		return fmt.Errorf("output.format %q is not one of csv, json, parquet", c.Output.Format)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// TelegramEnabled reports whether notifications are configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
