package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"marketlab/pkg/alpacadata"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "marketlab.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	yaml := `
portfolio:
  days_back: 90
  benchmark: QQQ
  watch_interval: 2m
screener:
  min_gap: 5
  max_results: 10
  symbols: [AAPL, MSFT]
stream:
  queue_size: 50
output:
  pretty: true
`
	cfg, err := Load(writeTempFile(t, yaml))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Portfolio.DaysBack != 90 {
		t.Errorf("Portfolio.DaysBack = %d, want 90", cfg.Portfolio.DaysBack)
	}
	if cfg.Portfolio.WatchInterval != 2*time.Minute {
		t.Errorf("Portfolio.WatchInterval = %v, want 2m", cfg.Portfolio.WatchInterval)
	}
	if cfg.Screener.MinGap != 5 || cfg.Screener.MaxResults != 10 {
		t.Errorf("Screener = %+v", cfg.Screener)
	}
	if len(cfg.Screener.Symbols) != 2 {
		t.Errorf("Screener.Symbols = %v", cfg.Screener.Symbols)
	}
	if !cfg.Output.Pretty {
		t.Error("Output.Pretty = false, want true")
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_ALPACA_KEY", "key123")
	yaml := `
alpaca:
  api_key: ${TEST_ALPACA_KEY}
  api_secret: shh
`
	cfg, err := Load(writeTempFile(t, yaml))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Alpaca.APIKey != "key123" {
		t.Errorf("Alpaca.APIKey = %q, want %q", cfg.Alpaca.APIKey, "key123")
	}
}

func TestLoad_PaperFalseNotOverridden(t *testing.T) {
	t.Setenv("ALPACA_PAPER", "true")
	t.Setenv("ALPACA_BASE_URL", "")
	cfg, err := LoadWithDefaults(writeTempFile(t, "alpaca:\n  paper: false\n"))
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}
	if cfg.Alpaca.IsPaper() {
		t.Error("Alpaca.IsPaper() = true, want false from yaml")
	}
	if cfg.Alpaca.BaseURL != alpacadata.LIVE_URL {
		t.Errorf("Alpaca.BaseURL = %s, want %s", cfg.Alpaca.BaseURL, alpacadata.LIVE_URL)
	}
}

func TestLoadWithDefaults(t *testing.T) {
	t.Setenv("ALPACA_FEED", "")
	cfg, err := LoadWithDefaults(writeTempFile(t, "screener:\n  min_price: 10\n"))
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}
	if cfg.Screener.MinPrice != 10 {
		t.Errorf("Screener.MinPrice = %v, want 10", cfg.Screener.MinPrice)
	}
	if cfg.Screener.MaxPrice != 500 || cfg.Screener.MinGap != 3 {
		t.Errorf("screener defaults not applied: %+v", cfg.Screener.Criteria)
	}
	if cfg.Portfolio.Benchmark != DefaultBenchmark {
		t.Errorf("Portfolio.Benchmark = %q, want %q", cfg.Portfolio.Benchmark, DefaultBenchmark)
	}
	if cfg.Backtest.Strategy != DefaultBacktestStrategy || cfg.Backtest.Capital != 10000 {
		t.Errorf("Backtest = %+v", cfg.Backtest)
	}
	if cfg.MonteCarlo.Simulations != 10000 || cfg.MonteCarlo.Alpha != 5 {
		t.Errorf("MonteCarlo = %+v", cfg.MonteCarlo)
	}
	if cfg.Alpaca.Feed != "iex" {
		t.Errorf("Alpaca.Feed = %q, want iex", cfg.Alpaca.Feed)
	}
	if len(cfg.Stream.Symbols) == 0 || cfg.Stream.QueueSize != DefaultQueueSize {
		t.Errorf("Stream = %+v", cfg.Stream)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"price bounds", func(c *Config) { c.Screener.MinPrice = 600 }, "screener.min_price"},
		{"unknown strategy", func(c *Config) { c.Backtest.Strategy = "martingale" }, "backtest.strategy"},
		{"alpha", func(c *Config) { c.MonteCarlo.Alpha = 100 }, "montecarlo.alpha"},
		{"risk percent", func(c *Config) { c.Trade.RiskPercent = -1 }, "trade.risk_percent"},
		{"queue size", func(c *Config) { c.Stream.QueueSize = -1 }, "stream.queue_size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	cfg, err := Resolve(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if cfg.Output.Dir != DefaultOutputDir {
		t.Errorf("Output.Dir = %q, want default", cfg.Output.Dir)
	}

	if _, err := Resolve(writeTempFile(t, "montecarlo:\n  alpha: 150\n")); err == nil {
		t.Error("Resolve() should validate loaded files")
	}
	if _, err := Resolve(writeTempFile(t, "portfolio: [")); err == nil {
		t.Error("Resolve() should report parse errors")
	}
}
