package config

import (
	"time"

	"marketlab/pkg/backtest"
	"marketlab/pkg/portfolio"
	"marketlab/pkg/riskmanagement"
	"marketlab/pkg/screener"
)

// Default values for optional configuration fields.
const (
	DefaultPath             = "marketlab.yaml"
	DefaultPortfolioDays    = 365
	DefaultBenchmark        = "SPY"
	DefaultPositionsFile    = "positions.json"
	DefaultWatchInterval    = 5 * time.Minute
	DefaultPatternsLookback = 180
	DefaultStreamSymbols    = "NVDA,QQQ,MSFT,VOO,AAPL,AMZN"
	DefaultQueueSize        = 1000
	DefaultBacktestStrategy = "supertrend"
	DefaultBacktestDays     = 730
	DefaultMonteCarloDays   = 730
	DefaultRiskPercent      = 1.0
	DefaultOutputDir        = "reports"
	ALL_STRATEGIES          = "all"
)

func (c *Config) applyDefaults() {
	// Alpaca credentials fall back to the environment.
	c.Alpaca = c.Alpaca.FillFromEnv()

	if c.Portfolio.DaysBack == 0 {
		c.Portfolio.DaysBack = DefaultPortfolioDays
	}
	if c.Portfolio.Benchmark == "" {
		c.Portfolio.Benchmark = DefaultBenchmark
	}
	if c.Portfolio.PositionsFile == "" {
		c.Portfolio.PositionsFile = DefaultPositionsFile
	}
	if c.Portfolio.WatchInterval == 0 {
		c.Portfolio.WatchInterval = DefaultWatchInterval
	}

	if c.Patterns.LookbackDays == 0 {
		c.Patterns.LookbackDays = DefaultPatternsLookback
	}

	d := screener.DefaultCriteria()
	if c.Screener.MinGap == 0 {
		c.Screener.MinGap = d.MinGap
	}
	if c.Screener.MinPrice == 0 {
		c.Screener.MinPrice = d.MinPrice
	}
	if c.Screener.MaxPrice == 0 {
		c.Screener.MaxPrice = d.MaxPrice
	}
	if c.Screener.MinVolumeRatio == 0 {
		c.Screener.MinVolumeRatio = d.MinVolumeRatio
	}
	if c.Screener.MaxResults == 0 {
		c.Screener.MaxResults = screener.MAX_RESULTS
	}
	if c.Screener.WatchInterval == 0 {
		c.Screener.WatchInterval = DefaultWatchInterval
	}

	if len(c.Stream.Symbols) == 0 {
		c.Stream.Symbols = screener.ParseSymbols(DefaultStreamSymbols)
	}
	if c.Stream.QueueSize == 0 {
		c.Stream.QueueSize = DefaultQueueSize
	}

	if c.Backtest.Strategy == "" {
		c.Backtest.Strategy = DefaultBacktestStrategy
	}
	if c.Backtest.DaysBack == 0 {
		c.Backtest.DaysBack = DefaultBacktestDays
	}
	if c.Backtest.TakeProfit == 0 {
		c.Backtest.TakeProfit = backtest.DEFAULT_TAKE_PROFIT
	}
	if c.Backtest.StopLoss == 0 {
		c.Backtest.StopLoss = backtest.DEFAULT_STOP_LOSS
	}
	if c.Backtest.Capital == 0 {
		c.Backtest.Capital = backtest.DEFAULT_CAPITAL
	}
	if c.Backtest.TSLFactor == 0 {
		c.Backtest.TSLFactor = backtest.DEFAULT_TSL_FACTOR
	}

	if c.MonteCarlo.DaysBack == 0 {
		c.MonteCarlo.DaysBack = DefaultMonteCarloDays
	}
	if c.MonteCarlo.Simulations == 0 {
		c.MonteCarlo.Simulations = portfolio.DEFAULT_SIMULATIONS
	}
	if c.MonteCarlo.Horizon == 0 {
		c.MonteCarlo.Horizon = portfolio.DEFAULT_HORIZON
	}
	if c.MonteCarlo.Alpha == 0 {
		c.MonteCarlo.Alpha = portfolio.DEFAULT_ALPHA
	}

	if c.Trade.RiskPercent == 0 {
		c.Trade.RiskPercent = DefaultRiskPercent
	}
	if c.Trade.TakeProfitMultiple == 0 {
		c.Trade.TakeProfitMultiple = riskmanagement.DEFAULT_TAKE_PROFIT_MULTIPLE
	}

	if c.Output.Dir == "" {
		c.Output.Dir = DefaultOutputDir
	}
}

// Default is the configuration used when no file is present.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}
