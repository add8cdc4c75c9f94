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
	"marketlab/pkg/schedule"
	"marketlab/pkg/screener"
	"marketlab/pkg/sp500"
)

const HISTORY_DAYS = 45 // calendar days, enough for 21 trading days

type summary struct {
	TotalScanned   int     `json:"total_scanned"`
	Qualifying     int     `json:"qualifying"`
	AverageGap     float64 `json:"avg_gap_up"`
	MaxResults     int     `json:"max_results"`
	SkippedSymbols int     `json:"skipped_symbols"`
}

type output struct {
	ScanTime       time.Time         `json:"scan_time"`
	MarketStatus   string            `json:"market_status"`
	FilterCriteria screener.Criteria `json:"filter_criteria"`
	Qualifying     []screener.Gapper `json:"qualifying_stocks"`
	Summary        summary           `json:"summary"`
}

func main() {
	configPath := flag.String("config", "", "path to marketlab.yaml")
	debug := flag.Bool("debug", false, "enable debug logging")
	minGap := flag.Float64("min-gap", 0, "minimum gap up percent")
	minPrice := flag.Float64("min-price", 0, "minimum price")
	maxPrice := flag.Float64("max-price", 0, "maximum price")
	minVol := flag.Float64("min-volume-multiplier", 0, "minimum volume vs average daily volume")
	maxResults := flag.Int("max-results", 0, "number of gappers to report")
	symbolsFlag := flag.String("symbols", "", "comma separated symbols (default: S&P 500)")
	save := flag.Bool("save", false, "save results as JSON")
	watch := flag.Bool("watch", false, "re-scan on the configured watch interval")
	flag.Parse()

	app, err := cli.Start("gappers", *configPath, *debug)
	if err != nil {
		os.Exit(1)
	}
	defer app.Close()

	cfg := app.Config.Screener
	if *minGap > 0 {
		cfg.MinGap = *minGap
	}
	if *minPrice > 0 {
		cfg.MinPrice = *minPrice
	}
	if *maxPrice > 0 {
		cfg.MaxPrice = *maxPrice
	}
	if *minVol > 0 {
		cfg.MinVolumeRatio = *minVol
	}
	if *maxResults > 0 {
		cfg.MaxResults = *maxResults
	}
	if *symbolsFlag != "" {
		cfg.Symbols = screener.ParseSymbols(*symbolsFlag)
	}

	client, err := app.Alpaca()
	if err != nil {
		app.Fatal("alpaca", err)
	}
	fetcher := sp500.NewFetcher(nil, app.Logger)

	run := func(ctx context.Context) error {
		universe, err := loadUniverse(ctx, cfg, fetcher)
		if err != nil {
			return err
		}
		out, err := scan(ctx, app.Logger, client, cfg, universe)
		if err != nil {
			return err
		}
		printReport(out)
		app.Save(*save, "gappers", out)
		return nil
	}

	if *watch {
		if err := schedule.Watch(app.Ctx, cfg.WatchInterval, app.Logger, run); err != nil {
			app.Fatal("watch", err)
		}
		return
	}
	if err := run(app.Ctx); err != nil {
		app.Fatal("scan failed", err)
	}
}

func loadUniverse(ctx context.Context, cfg config.ScreenerConfig, fetcher *sp500.Fetcher) ([]string, error) {
	if len(cfg.Symbols) > 0 {
		return cfg.Symbols, nil
	}
	if cfg.SymbolsFile != "" {
		return screener.LoadSymbolsCSV(cfg.SymbolsFile)
	}
	return fetcher.Tickers(ctx)
}

func scan(ctx context.Context, logger *zap.Logger, client *alpacadata.Client, cfg config.ScreenerConfig, universe []string) (output, error) {
	now := time.Now()
	out := output{
		ScanTime:       now,
		MarketStatus:   alpacadata.MarketStatus(now),
		FilterCriteria: cfg.Criteria,
	}

	snaps, err := client.Snapshots(ctx, universe)
	if err != nil {
		return output{}, err
	}
	out.Summary.TotalScanned = len(snaps)

	// Gap and price first, so daily history is only fetched for candidates.
	loose := cfg.Criteria
	loose.MinVolumeRatio = 0
	var candidates []screener.Gapper
	for _, s := range snaps {
		g := screener.FromSnapshot(s.Symbol, s.Price, s.PrevClose, s.Volume, 0)
		if loose.Pass(g) {
			candidates = append(candidates, g)
		}
	}
	logger.Info("gap candidates", zap.Int("scanned", len(snaps)), zap.Int("candidates", len(candidates)))

	start, end := cli.Window(HISTORY_DAYS, now)
	var enriched []screener.Gapper
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return output{}, err
		}
		bars, err := client.DailyBars(ctx, c.Symbol, start, end)
		if err != nil {
			logger.Warn("skipping symbol", zap.String("symbol", c.Symbol), zap.Error(err))
			out.Summary.SkippedSymbols++
			continue
		}
		// Before the open the latest daily bar is the previous session.
		inSession := alpacadata.TradingDate(bars[len(bars)-1].Time).Equal(alpacadata.TradingDate(now))
		g := screener.FromSnapshot(c.Symbol, c.Price, c.PrevClose, c.Volume,
			screener.AverageVolume(bars, screener.METRICS_WINDOW-1, inSession))
		dolVol, adr, err := screener.HistoricalMetrics(bars)
		if err != nil && !errors.Is(err, screener.ErrInsufficientBars) {
			logger.Debug("historical metrics", zap.String("symbol", c.Symbol), zap.Error(err))
		}
		g.DollarVolume, g.ADR = dolVol, adr
		enriched = append(enriched, g)
	}

	qualifying := screener.Dedupe(screener.Filter(enriched, cfg.Criteria))
	screener.Rank(qualifying)
	out.Qualifying = screener.Top(qualifying, cfg.MaxResults)
	out.Summary.Qualifying = len(out.Qualifying)
	out.Summary.AverageGap = screener.AverageGap(out.Qualifying)
	out.Summary.MaxResults = cfg.MaxResults
	return out, nil
}

func printReport(out output) {
	fmt.Printf("\n=== Gap Up Scan %s (%s) ===\n", out.ScanTime.Format("2006-01-02 15:04:05"), out.MarketStatus)
	c := out.FilterCriteria
	fmt.Printf("Criteria: gap >= %.1f%%, price $%.2f-$%.2f, volume >= %.1fx average\n",
		c.MinGap, c.MinPrice, c.MaxPrice, c.MinVolumeRatio)
	fmt.Printf("Scanned %d symbols, %d qualify\n\n", out.Summary.TotalScanned, out.Summary.Qualifying)
	if len(out.Qualifying) == 0 {
		fmt.Println("No gappers found.")
		return
	}
	fmt.Printf("%-4s %-7s %9s %9s %8s %8s %7s %14s\n", "#", "Symbol", "Price", "Prev", "Gap %", "Vol x", "ADR %", "Avg $Vol")
	for i, g := range out.Qualifying {
		fmt.Printf("%-4d %-7s %9.2f %9.2f %8.2f %8.2f %7.2f %14.0f\n",
			i+1, g.Symbol, g.Price, g.PrevClose, g.GapPercent, g.VolumeRatio, g.ADR, g.DollarVolume)
	}
	fmt.Printf("\nAverage gap: %.2f%%\n", out.Summary.AverageGap)
}
