package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"marketlab/pkg/alpacadata"
	"marketlab/pkg/candle"
	"marketlab/pkg/cli"
	"marketlab/pkg/indicators"
	"marketlab/pkg/patterns"
)

type output struct {
	Symbol     string              `json:"symbol"`
	Start      time.Time           `json:"start"`
	End        time.Time           `json:"end"`
	Interval   string              `json:"interval"`
	Summary    patterns.Summary    `json:"summary"`
	Indicators indicators.Snapshot `json:"indicators"`
}

func main() {
	configPath := flag.String("config", "", "path to marketlab.yaml")
	debug := flag.Bool("debug", false, "enable debug logging")
	startFlag := flag.String("start", "", "first day, YYYY-MM-DD (default: lookback from config)")
	endFlag := flag.String("end", "", "last day, YYYY-MM-DD (default: today)")
	session := flag.String("session", "", "analyze intraday bars for this day, YYYY-MM-DD")
	interval := flag.Duration("interval", 5*time.Minute, "intraday bar size with --session")
	minStrength := flag.Float64("min-strength", 0, "minimum pattern strength 0-100")
	latest := flag.Int("latest", 10, "number of recent patterns to print")
	save := flag.Bool("save", false, "save results as JSON")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: patterns [flags] TICKER")
		os.Exit(2)
	}
	symbol := strings.ToUpper(flag.Arg(0))

	app, err := cli.Start("patterns", *configPath, *debug)
	if err != nil {
		os.Exit(1)
	}
	defer app.Close()

	if *minStrength == 0 {
		*minStrength = app.Config.Patterns.MinStrength
	}

	client, err := app.Alpaca()
	if err != nil {
		app.Fatal("alpaca", err)
	}

	var bars []candle.Bar
	out := output{Symbol: symbol}
	if *session != "" {
		day, err := cli.ParseDate(*session, time.Time{})
		if err != nil {
			app.Fatal("bad --session", err)
		}
		trades, err := client.SessionTrades(app.Ctx, symbol, day)
		if err != nil {
			app.Fatal("fetching trades", err)
		}
		bars = alpacadata.AggregateTrades(trades, *interval)
		out.Start, out.End = alpacadata.SessionWindow(day)
		out.Interval = interval.String()
	} else {
		defStart, defEnd := cli.Window(app.Config.Patterns.LookbackDays, time.Now())
		start, err := cli.ParseDate(*startFlag, defStart)
		if err != nil {
			app.Fatal("bad --start", err)
		}
		end, err := cli.ParseDate(*endFlag, defEnd)
		if err != nil {
			app.Fatal("bad --end", err)
		}
		bars, err = client.DailyBars(app.Ctx, symbol, start, end)
		if err != nil {
			app.Fatal("fetching bars", err)
		}
		out.Start, out.End, out.Interval = start, end, "1d"
	}
	app.Logger.Info("bars loaded", zap.String("symbol", symbol), zap.Int("bars", len(bars)))

	results := patterns.Filter(patterns.Detect(bars), *minStrength)
	out.Summary = patterns.Summarize(results)
	out.Indicators = indicators.Evaluate(bars)

	printSummary(out, *latest)
	app.Save(*save, fmt.Sprintf("%s_patterns", symbol), out)
}

func printSummary(out output, latest int) {
	s := out.Summary
	fmt.Printf("\n=== Candlestick Patterns: %s (%s bars) ===\n", out.Symbol, out.Interval)
	fmt.Printf("Period: %s to %s\n", out.Start.Format(cli.DATE_LAYOUT), out.End.Format(cli.DATE_LAYOUT))
	fmt.Printf("Patterns found: %d\n", s.Total)
	for _, sig := range []patterns.Signal{patterns.Bullish, patterns.Bearish, patterns.Neutral} {
		if n := s.BySignal[sig]; n > 0 {
			fmt.Printf("  %-8s %4d  (avg strength %.1f)\n", sig, n, s.AvgScore[sig])
		}
	}
	fmt.Printf("Dominant signal: %s\n", s.Dominant)

	if rows := patterns.Latest(s.Rows, latest); len(rows) > 0 {
		fmt.Printf("\nMost recent %d:\n", len(rows))
		for _, r := range rows {
			fmt.Printf("  %s  %-22s %-8s %5.1f  $%.2f\n",
				r.Time.Format("2006-01-02 15:04"), r.Name, r.Signal, r.Strength, r.Price)
		}
	}

	ind := out.Indicators
	fmt.Println("\nIndicator signals (last bar):")
	fmt.Printf("  SuperTrend: %s  Bollinger: %s  MACD: %s  RSI: %s  Dual MA: %s\n",
		ind.SuperTrend, ind.Bollinger, ind.MACD, ind.RSISignal, ind.DualMA)
	if ind.RSI != nil {
		fmt.Printf("  RSI(14): %.1f", *ind.RSI)
	}
	if ind.ATR != nil {
		fmt.Printf("  ATR(14): %.2f", *ind.ATR)
	}
	fmt.Printf("  Trend strength: %.3f%%\n", ind.TrendStrength)
}
