package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"marketlab/pkg/cli"
	"marketlab/pkg/portfolio"
)

type output struct {
	Positions portfolio.Positions        `json:"positions"`
	Calendar  portfolio.DividendCalendar `json:"calendar"`
	Since     time.Time                  `json:"paid_since"`
	Paid      map[string]float64         `json:"paid"`
}

func main() {
	configPath := flag.String("config", "", "path to marketlab.yaml")
	debug := flag.Bool("debug", false, "enable debug logging")
	positionsFile := flag.String("positions", "", "JSON file of {TICKER: shares}; the Alpaca account is used when absent")
	since := flag.Int("since-days", 90, "also total dividends with an ex-date in the last N days")
	save := flag.Bool("save", false, "save results as JSON")
	flag.Parse()

	app, err := cli.Start("dividends", *configPath, *debug)
	if err != nil {
		os.Exit(1)
	}
	defer app.Close()

	if *positionsFile == "" {
		*positionsFile = app.Config.Portfolio.PositionsFile
	}
	client, err := app.Alpaca()
	if err != nil {
		app.Fatal("alpaca", err)
	}
	positions, err := app.Positions(client, *positionsFile)
	if err != nil {
		app.Fatal("loading positions", err)
	}

	now := time.Now().UTC()
	start, end := portfolio.TwelveMonthWindow(now)
	divs, err := client.CashDividends(app.Ctx, positions.Tickers(), start, end)
	if err != nil {
		app.Fatal("loading dividends", err)
	}

	cutoff := now.AddDate(0, 0, -*since)
	out := output{
		Positions: positions,
		Calendar:  portfolio.Calendar(divs, positions, start, end),
		Since:     cutoff,
		Paid:      portfolio.DividendsPaid(divs, positions, cutoff),
	}

	printCalendar(out.Calendar)
	printPaid(out)
	app.Save(*save, "dividend_calendar", out)
}

func printCalendar(cal portfolio.DividendCalendar) {
	fmt.Println("\n=== Dividend Calendar ===")
	if len(cal.Rows) == 0 {
		fmt.Println("No cash dividends in the last twelve months.")
		return
	}
	var header strings.Builder
	fmt.Fprintf(&header, "%-12s", "Symbol")
	for _, m := range cal.Months {
		fmt.Fprintf(&header, " %8s", m.Format("Jan 06"))
	}
	fmt.Fprintf(&header, " %10s", "Total")
	fmt.Println(header.String())

	for _, row := range append(cal.Rows, cal.GrandTotal) {
		fmt.Printf("%-12s", row.Symbol)
		for _, a := range row.Amounts {
			fmt.Printf(" %8.2f", a)
		}
		fmt.Printf(" %10.2f\n", row.Total)
	}
}

func printPaid(out output) {
	fmt.Printf("\nDividends with ex-date after %s:\n", out.Since.Format(cli.DATE_LAYOUT))
	total := 0.0
	for _, sym := range out.Positions.Tickers() {
		if amt, ok := out.Paid[sym]; ok {
			fmt.Printf("  %-8s $%10.2f\n", sym, amt)
			total += amt
		}
	}
	fmt.Printf("  %-8s $%10.2f\n", "Total", total)
}
