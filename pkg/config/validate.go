package config

import (
	"errors"
	"fmt"

	"marketlab/pkg/backtest"
	"marketlab/pkg/portfolio"
)

// Validate checks value ranges. Credentials are checked when a client is
// built, since some commands never touch the API.
func (c *Config) Validate() error {
	if c.Portfolio.DaysBack < 2 {
		return errors.New("portfolio.days_back must be >= 2")
	}
	if c.Portfolio.WatchInterval < 0 || c.Screener.WatchInterval < 0 {
		return errors.New("watch_interval must not be negative")
	}

	if c.Screener.MinPrice > c.Screener.MaxPrice {
		return fmt.Errorf("screener.min_price %v exceeds max_price %v", c.Screener.MinPrice, c.Screener.MaxPrice)
	}
	if c.Screener.MaxResults < 1 {
		return errors.New("screener.max_results must be >= 1")
	}

	if c.Stream.QueueSize < 0 {
		return errors.New("stream.queue_size must be >= 0")
	}

	if _, err := backtest.Lookup(c.Backtest.Strategy); err != nil && c.Backtest.Strategy != ALL_STRATEGIES {
		return fmt.Errorf("backtest.strategy: %w", err)
	}
	if c.Backtest.TakeProfit <= 0 || c.Backtest.StopLoss <= 0 {
		return errors.New("backtest.take_profit and backtest.stop_loss must be > 0")
	}
	if c.Backtest.Capital <= 0 {
		return errors.New("backtest.capital must be > 0")
	}

	if c.MonteCarlo.Simulations < 1 || c.MonteCarlo.Horizon < 1 {
		return errors.New("montecarlo.simulations and montecarlo.horizon must be >= 1")
	}
	if c.MonteCarlo.Alpha <= 0 || c.MonteCarlo.Alpha >= 100 {
		return fmt.Errorf("montecarlo.alpha must be between 0 and 100, got %v", c.MonteCarlo.Alpha)
	}
	if c.MonteCarlo.DaysBack < 2 {
		return fmt.Errorf("montecarlo.days_back: %w", portfolio.ErrInsufficientData)
	}

	if c.Trade.RiskPercent <= 0 || c.Trade.RiskPercent > 100 {
		return fmt.Errorf("trade.risk_percent must be in (0, 100], got %v", c.Trade.RiskPercent)
	}

	return nil
}
