package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"marketlab/pkg/cli"
	"marketlab/pkg/riskmanagement"
)

// ENTRY_OFFSET is added to the last trade when no entry price is given.
const ENTRY_OFFSET = 0.10

type output struct {
	Symbol  string                 `json:"symbol"`
	Account float64                `json:"account_size"`
	Risk    float64                `json:"risk_percent"`
	Sizing  riskmanagement.Sizing  `json:"sizing"`
	Bracket riskmanagement.Bracket `json:"bracket"`
	DryRun  bool                   `json:"dry_run"`
	OrderID string                 `json:"order_id,omitempty"`
}

func main() {
	configPath := flag.String("config", "", "path to marketlab.yaml")
	debug := flag.Bool("debug", false, "enable debug logging")
	entry := flag.Float64("entry", 0, "limit entry price (default: last trade + $0.10)")
	stop := flag.Float64("stop", 0, "stop loss price (required)")
	risk := flag.Float64("risk", 0, "percent of the account to risk (default from config)")
	account := flag.Float64("account", 0, "account size (default: Alpaca account equity)")
	tpMultiple := flag.Float64("tp-multiple", 0, "take profit as a multiple of entry (default from config)")
	dryRun := flag.Bool("dry-run", true, "print the order without submitting it")
	cancelAll := flag.Bool("cancel-all", false, "cancel every open order and exit")
	save := flag.Bool("save", false, "save the order plan as JSON")
	flag.Parse()

	app, err := cli.Start("trade", *configPath, *debug)
	if err != nil {
		os.Exit(1)
	}
	defer app.Close()

	client, err := app.Alpaca()
	if err != nil {
		app.Fatal("alpaca", err)
	}
	trader := riskmanagement.NewTrader(client.Alpaca, app.Logger)

	if *cancelAll {
		n, err := trader.CancelAll()
		if err != nil {
			app.Fatal("cancel orders", err)
		}
		fmt.Printf("Cancelled %d open orders.\n", n)
		return
	}

	if flag.NArg() != 1 || *stop <= 0 {
		fmt.Fprintln(os.Stderr, "usage: trade [flags] --stop PRICE TICKER")
		os.Exit(2)
	}
	symbol := strings.ToUpper(flag.Arg(0))

	if *risk <= 0 {
		*risk = app.Config.Trade.RiskPercent
	}
	if *tpMultiple <= 0 {
		*tpMultiple = app.Config.Trade.TakeProfitMultiple
	}
	if *entry <= 0 {
		last, err := client.LatestPrice(app.Ctx, symbol)
		if err != nil {
			app.Fatal("latest price", err)
		}
		*entry = last + ENTRY_OFFSET
		app.Logger.Info("entry from last trade", zap.Float64("last", last), zap.Float64("entry", *entry))
	}
	if *account <= 0 {
		if *account, err = trader.AccountEquity(); err != nil {
			app.Fatal("account", err)
		}
	}

	sizing, err := riskmanagement.PositionSize(*account, *risk, *entry, *stop)
	if err != nil {
		app.Fatal("position size", err)
	}
	bracket, err := riskmanagement.BracketOrder(symbol, sizing.Shares, *entry, *stop, *tpMultiple)
	if err != nil {
		app.Fatal("bracket order", err)
	}

	out := output{
		Symbol:  symbol,
		Account: *account,
		Risk:    *risk,
		Sizing:  sizing,
		Bracket: bracket,
		DryRun:  *dryRun,
	}
	printPlan(out)

	if !*dryRun {
		order, err := trader.Submit(bracket)
		if err != nil {
			app.Fatal("submit", err)
		}
		out.OrderID = order.ID
		fmt.Printf("\nOrder %s submitted, status %s\n", order.ID, order.Status)
	} else {
		fmt.Println("\nDry run: order not submitted (use --dry-run=false to send it).")
	}
	app.Save(*save, fmt.Sprintf("%s_order", symbol), out)
}

func printPlan(out output) {
	b := out.Bracket
	fmt.Println("\n=== Position Size ===")
	fmt.Printf("Account: $%.2f  Risk: %.2f%% ($%.2f)\n", out.Account, out.Risk, out.Sizing.MaxRiskAmount)
	fmt.Printf("Risk per share: $%.2f  Shares: %d\n", out.Sizing.RiskPerShare, out.Sizing.Shares)

	fmt.Println("\n=== Bracket Order ===")
	fmt.Printf("Symbol: %s  Qty: %d  Side: buy  Type: limit  TIF: day\n", b.Symbol, b.Shares)
	fmt.Printf("Limit Price: $%s\n", b.Limit.StringFixed(2))
	fmt.Printf("Stop Loss: $%s\n", b.StopLoss.StringFixed(2))
	fmt.Printf("Take Profit: $%s\n", b.TakeProfit.StringFixed(2))
	fmt.Printf("Dollar risk at stop: $%s\n", b.Risk().StringFixed(2))
}
