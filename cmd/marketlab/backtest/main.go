package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"marketlab/pkg/backtest"
	"marketlab/pkg/cli"
	"marketlab/pkg/screener"
)

func main() {
	configPath := flag.String("config", "", "path to marketlab.yaml")
	debug := flag.Bool("debug", false, "enable debug logging")
	strategy := flag.String("strategy", "", fmt.Sprintf("one of %v, or all", backtest.Names()))
	tickers := flag.String("tickers", "", "comma separated tickers")
	tp := flag.Float64("tp", 0, "take profit as a fraction, e.g. 0.05")
	sl := flag.Float64("sl", 0, "stop loss as a fraction, e.g. 0.06")
	capital := flag.Float64("capital", 0, "starting capital")
	factor := flag.Float64("tsl-factor", 0, "trailing stop distance in ATRs")
	days := flag.Int("days", 0, "calendar days of history")
	save := flag.Bool("save", false, "save results as JSON")
	flag.Parse()

	app, err := cli.Start("backtest", *configPath, *debug)
	if err != nil {
		os.Exit(1)
	}
	defer app.Close()

	cfg := app.Config.Backtest
	if *strategy != "" {
		cfg.Strategy = *strategy
	}
	if *tickers != "" {
		cfg.Tickers = screener.ParseSymbols(*tickers)
	}
	if *tp > 0 {
		cfg.TakeProfit = *tp
	}
	if *sl > 0 {
		cfg.StopLoss = *sl
	}
	if *capital > 0 {
		cfg.Capital = *capital
	}
	if *factor > 0 {
		cfg.TSLFactor = *factor
	}
	if *days > 0 {
		cfg.DaysBack = *days
	}
	if len(cfg.Tickers) == 0 {
		fmt.Fprintln(os.Stderr, "backtest: --tickers is required")
		os.Exit(2)
	}

	names := []string{cfg.Strategy}
	if cfg.Strategy == "all" {
		names = backtest.Names()
	}
	strategies := make(map[string]backtest.Strategy, len(names))
	for _, name := range names {
		s, err := backtest.Lookup(name)
		if err != nil {
			app.Fatal("strategy", err)
		}
		strategies[name] = s
	}

	client, err := app.Alpaca()
	if err != nil {
		app.Fatal("alpaca", err)
	}

	start, end := cli.Window(cfg.DaysBack, time.Now())
	var results []backtest.Result
	for _, ticker := range cfg.Tickers {
		bars, err := client.DailyBars(app.Ctx, ticker, start, end)
		if err != nil {
			app.Logger.Warn("skipping ticker", zap.String("ticker", ticker), zap.Error(err))
			continue
		}
		for _, name := range names {
			sig := strategies[name](bars)
			events := sig.Events()

			simple := backtest.Simple(bars, events, cfg.TakeProfit, cfg.StopLoss, cfg.Capital)
			trailing := backtest.TrailingStop(bars, sig.ATR, events, cfg.TSLFactor, cfg.Capital)
			for _, r := range []backtest.Result{simple, trailing} {
				r.Symbol, r.Strategy = ticker, name
				results = append(results, r)
			}
		}
	}
	if len(results) == 0 {
		app.Fatal("backtest", fmt.Errorf("no ticker could be backtested"))
	}

	printResults(results)
	app.Save(*save, "backtest_results", results)
}

func printResults(results []backtest.Result) {
	fmt.Println("\n=== Backtest Results ===")
	fmt.Printf("%-7s %-11s %-14s %12s %7s %5s %5s %8s %5s %5s %9s\n",
		"Ticker", "Strategy", "Mode", "Final $", "Trades", "Wins", "Loss", "Win %", "TP", "SL", "Return %")
	for _, r := range results {
		fmt.Printf("%-7s %-11s %-14s %12.2f %7d %5d %5d %8.2f %5d %5d %9.2f\n",
			r.Symbol, r.Strategy, r.Mode, r.FinalCapital, r.Trades, r.Wins, r.Losses,
			r.WinRate, r.TakeProfitExits, r.StopLossExits, r.ReturnPct)
	}
}
