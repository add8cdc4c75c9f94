package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"marketlab/pkg/alpacadata"
	"marketlab/pkg/cli"
	"marketlab/pkg/config"
	"marketlab/pkg/portfolio"
	"marketlab/pkg/schedule"
)

type output struct {
	Positions portfolio.Positions  `json:"positions"`
	Weights   map[string]float64   `json:"weights"`
	Metrics   portfolio.Metrics    `json:"metrics"`
	Benchmark *portfolio.Benchmark `json:"benchmark,omitempty"`
}

func main() {
	configPath := flag.String("config", "", "path to marketlab.yaml")
	debug := flag.Bool("debug", false, "enable debug logging")
	days := flag.Int("days", 0, "calendar days of history (default from config)")
	benchmark := flag.String("benchmark", "", "benchmark symbol (default from config)")
	positionsFile := flag.String("positions", "", "JSON file of {TICKER: shares}; the Alpaca account is used when absent")
	save := flag.Bool("save", false, "save results as JSON")
	watch := flag.Bool("watch", false, "re-run on the configured watch interval")
	flag.Parse()

	app, err := cli.Start("portfolio", *configPath, *debug)
	if err != nil {
		os.Exit(1)
	}
	defer app.Close()

	cfg := app.Config.Portfolio
	if *days > 0 {
		cfg.DaysBack = *days
	}
	if *benchmark != "" {
		cfg.Benchmark = *benchmark
	}
	if *positionsFile != "" {
		cfg.PositionsFile = *positionsFile
	}

	client, err := app.Alpaca()
	if err != nil {
		app.Fatal("alpaca", err)
	}

	run := func(ctx context.Context) error {
		out, err := analyze(ctx, app, client, cfg)
		if err != nil {
			return err
		}
		printReport(out)
		app.Save(*save, "portfolio_metrics", out)
		return nil
	}

	if *watch {
		if err := schedule.Watch(app.Ctx, cfg.WatchInterval, app.Logger, run); err != nil {
			app.Fatal("watch", err)
		}
		return
	}
	if err := run(app.Ctx); err != nil {
		app.Fatal("portfolio analysis failed", err)
	}
}

func analyze(ctx context.Context, app *cli.App, client *alpacadata.Client, cfg config.PortfolioConfig) (output, error) {
	positions, err := app.Positions(client, cfg.PositionsFile)
	if err != nil {
		return output{}, fmt.Errorf("loading positions: %w", err)
	}

	symbols := positions.Tickers()
	if cfg.Benchmark != "" {
		symbols = append(symbols, cfg.Benchmark)
	}
	start, end := cli.Window(cfg.DaysBack, time.Now())
	table, err := client.CloseTable(ctx, symbols, start, end)
	if err != nil {
		return output{}, fmt.Errorf("loading prices: %w", err)
	}

	held := make(portfolio.Positions, len(positions))
	for sym, shares := range positions {
		if sym == cfg.Benchmark {
			continue
		}
		held[sym] = shares
	}

	out := output{Positions: held}
	if out.Metrics, err = portfolio.ComputeMetrics(table, held); err != nil {
		return output{}, err
	}
	if out.Weights, err = table.Weights(held); err != nil {
		return output{}, err
	}

	if cfg.Benchmark != "" {
		b, err := portfolio.CompareBenchmark(table, held, cfg.Benchmark)
		switch {
		case errors.Is(err, portfolio.ErrInsufficientData):
			app.Logger.Warn("benchmark unavailable", zap.String("symbol", cfg.Benchmark))
		case err != nil:
			return output{}, err
		default:
			out.Benchmark = &b
		}
	}
	return out, nil
}

func printReport(out output) {
	m := out.Metrics
	fmt.Println("\n=== Portfolio Summary ===")
	fmt.Printf("Period: %s to %s (%d trading days)\n",
		m.Dates[0].Format(cli.DATE_LAYOUT), m.Dates[len(m.Dates)-1].Format(cli.DATE_LAYOUT), m.TradingDays)
	fmt.Printf("Initial value:      $%12.2f\n", m.InitialValue)
	fmt.Printf("Final value:        $%12.2f\n", m.FinalValue)
	fmt.Printf("Total change:       $%12.2f (%.2f%%)\n", m.TotalChange, m.PercentReturn)
	fmt.Printf("Annualized return:   %11.2f%%\n", m.AnnualizedReturn*100)
	fmt.Printf("Max drawdown:        %11.2f%% ($%.2f on %s)\n",
		m.MaxDrawdownPct*100, m.MaxDrawdownDollars, m.MaxDrawdownDate.Format(cli.DATE_LAYOUT))
	fmt.Printf("Trend slope:        $%12.2f per day\n", m.TrendSlope)

	fmt.Println("\n=== Daily Changes ===")
	fmt.Printf("Gain days: %d  Loss days: %d  Flat days: %d  Win/loss: %.2f\n",
		m.GainDays, m.LossDays, m.FlatDays, m.WinLossRatio())
	fmt.Printf("Average daily change: $%.2f  Avg gain: $%.2f  Avg loss: $%.2f\n",
		m.AvgDailyChange, m.AvgGain, m.AvgLoss)
	fmt.Printf("Latest 1-week MA: $%.2f  2-week MA: $%.2f\n", m.MA5.Last(), m.MA10.Last())

	fmt.Println("\n=== Holdings ===")
	for _, sym := range out.Positions.Tickers() {
		fmt.Printf("  %-8s %10.2f shares  %6.2f%%\n", sym, out.Positions[sym], out.Weights[sym]*100)
	}

	if b := out.Benchmark; b != nil {
		fmt.Printf("\n=== vs %s ===\n", b.Symbol)
		fmt.Printf("Portfolio: %.2f%%  Benchmark: %.2f%%  Excess: %.2f%%\n",
			b.PortfolioReturn*100, b.BenchmarkReturn*100, b.ExcessReturn*100)
	}
}
