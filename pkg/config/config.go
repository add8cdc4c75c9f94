package config

import (
	"time"

	"marketlab/pkg/alpacadata"
	"marketlab/pkg/screener"
)

// Config is the optional marketlab.yaml. Command flags override it.
type Config struct {
	Alpaca     alpacadata.Config `yaml:"alpaca"`
	Portfolio  PortfolioConfig   `yaml:"portfolio"`
	Patterns   PatternsConfig    `yaml:"patterns"`
	Screener   ScreenerConfig    `yaml:"screener"`
	Stream     StreamConfig      `yaml:"stream"`
	Backtest   BacktestConfig    `yaml:"backtest"`
	MonteCarlo MonteCarloConfig  `yaml:"montecarlo"`
	Trade      TradeConfig       `yaml:"trade"`
	Output     OutputConfig      `yaml:"output"`
}

type PortfolioConfig struct {
	DaysBack      int           `yaml:"days_back"`
	Benchmark     string        `yaml:"benchmark"`
	PositionsFile string        `yaml:"positions_file"`
	WatchInterval time.Duration `yaml:"watch_interval"`
}

type PatternsConfig struct {
	LookbackDays int     `yaml:"lookback_days"`
	MinStrength  float64 `yaml:"min_strength"`
}

type ScreenerConfig struct {
	screener.Criteria `yaml:",inline"`
	MaxResults        int           `yaml:"max_results"`
	Symbols           []string      `yaml:"symbols"`
	SymbolsFile       string        `yaml:"symbols_file"`
	WatchInterval     time.Duration `yaml:"watch_interval"`
}

type StreamConfig struct {
	Symbols   []string `yaml:"symbols"`
	QueueSize int      `yaml:"queue_size"`
}

type BacktestConfig struct {
	Strategy   string   `yaml:"strategy"`
	Tickers    []string `yaml:"tickers"`
	DaysBack   int      `yaml:"days_back"`
	TakeProfit float64  `yaml:"take_profit"`
	StopLoss   float64  `yaml:"stop_loss"`
	Capital    float64  `yaml:"capital"`
	TSLFactor  float64  `yaml:"tsl_factor"`
}

type MonteCarloConfig struct {
	DaysBack    int     `yaml:"days_back"`
	Simulations int     `yaml:"simulations"`
	Horizon     int     `yaml:"horizon"`
	Alpha       float64 `yaml:"alpha"`
	Seed        uint64  `yaml:"seed"`
}

type TradeConfig struct {
	RiskPercent        float64 `yaml:"risk_percent"`
	TakeProfitMultiple float64 `yaml:"take_profit_multiple"`
}

type OutputConfig struct {
	Dir    string `yaml:"dir"`
	Pretty bool   `yaml:"pretty"`
}
