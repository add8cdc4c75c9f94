package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"go.uber.org/zap"

	"marketlab/pkg/cli"
	"marketlab/pkg/portfolio"
)

type varRow struct {
	Method  string  `json:"method"`
	VaR     float64 `json:"var"`      // loss fraction of portfolio value
	CVaR    float64 `json:"cvar"`     // loss fraction of portfolio value
	Dollars float64 `json:"var_usd"`  // VaR times current value
	CDollar float64 `json:"cvar_usd"` // CVaR times current value
}

type output struct {
	Value      float64                    `json:"portfolio_value"`
	Weights    map[string]float64         `json:"weights"`
	Risk       portfolio.Risk             `json:"risk"`
	Assessment portfolio.Assessment       `json:"assessment"`
	Alpha      float64                    `json:"alpha_percent"`
	Horizon    int                        `json:"horizon_days"` // VaR and Monte Carlo
	VaR        []varRow                   `json:"var"`
	MonteCarlo portfolio.SimulationResult `json:"monte_carlo"`
}

func main() {
	configPath := flag.String("config", "", "path to marketlab.yaml")
	debug := flag.Bool("debug", false, "enable debug logging")
	days := flag.Int("days", 0, "calendar days of history (default from config)")
	sims := flag.Int("sims", 0, "Monte Carlo simulations (default from config)")
	horizon := flag.Int("horizon", 0, "VaR and Monte Carlo horizon in trading days (default from config)")
	alpha := flag.Float64("alpha", 0, "tail percentile for VaR, e.g. 5 (default from config)")
	dof := flag.Float64("dof", portfolio.DEFAULT_DOF, "Student-t degrees of freedom")
	seed := flag.Uint64("seed", 0, "random seed (0 uses the clock)")
	positionsFile := flag.String("positions", "", "JSON file of {TICKER: shares}; the Alpaca account is used when absent")
	save := flag.Bool("save", false, "save results as JSON")
	flag.Parse()

	app, err := cli.Start("risk", *configPath, *debug)
	if err != nil {
		os.Exit(1)
	}
	defer app.Close()

	mc := app.Config.MonteCarlo
	if *days > 0 {
		mc.DaysBack = *days
	}
	if *sims > 0 {
		mc.Simulations = *sims
	}
	if *horizon > 0 {
		mc.Horizon = *horizon
	}
	if *alpha > 0 {
		mc.Alpha = *alpha
	}
	if *seed != 0 {
		mc.Seed = *seed
	}
	if mc.Seed == 0 {
		mc.Seed = uint64(time.Now().UnixNano())
	}
	if *positionsFile == "" {
		*positionsFile = app.Config.Portfolio.PositionsFile
	}
	bench := app.Config.Portfolio.Benchmark

	client, err := app.Alpaca()
	if err != nil {
		app.Fatal("alpaca", err)
	}
	positions, err := app.Positions(client, *positionsFile)
	if err != nil {
		app.Fatal("loading positions", err)
	}
	delete(positions, bench)

	start, end := cli.Window(mc.DaysBack, time.Now())
	table, err := client.CloseTable(app.Ctx, append(positions.Tickers(), bench), start, end)
	if err != nil {
		app.Fatal("loading prices", err)
	}

	values, err := table.Values(positions)
	if err != nil {
		app.Fatal("portfolio values", err)
	}
	weights, err := table.Weights(positions)
	if err != nil {
		app.Fatal("portfolio weights", err)
	}
	metrics, err := portfolio.ComputeMetrics(table, positions)
	if err != nil {
		app.Fatal("portfolio metrics", err)
	}

	risk, err := portfolio.ComputeRisk(values, table.Closes[bench], weights)
	if err != nil {
		app.Fatal("risk metrics", err)
	}

	out := output{
		Value:      values[len(values)-1],
		Weights:    weights,
		Risk:       risk,
		Assessment: portfolio.Assess(risk.Volatility, metrics.MaxDrawdownPct*100, risk.Sharpe),
		Alpha:      mc.Alpha,
		Horizon:    mc.Horizon,
	}

	// Tickers with a price column, in the order the weight vector uses.
	var tickers []string
	var w []float64
	for _, sym := range positions.Tickers() {
		if wt, ok := weights[sym]; ok {
			tickers = append(tickers, sym)
			w = append(w, wt)
		}
	}
	rows, err := table.ReturnMatrix(tickers)
	if err != nil {
		app.Fatal("return matrix", err)
	}

	rets := portfolio.Returns(values)
	hv := portfolio.HorizonScale(-portfolio.HistoricalVaR(rets, mc.Alpha), mc.Horizon)
	hc := portfolio.HorizonScale(-portfolio.HistoricalCVaR(rets, mc.Alpha), mc.Horizon)
	out.VaR = append(out.VaR, row("historical", hv, hc, out.Value))

	means, cov, err := portfolio.MeanCov(rows)
	if err != nil {
		app.Fatal("covariance", err)
	}
	ret, std := portfolio.Performance(w, means, cov, mc.Horizon)
	for _, dist := range []portfolio.Distribution{portfolio.Normal, portfolio.StudentT} {
		v, err := portfolio.ParametricVaR(ret, std, dist, mc.Alpha, *dof)
		if err != nil {
			app.Logger.Warn("parametric VaR", zap.String("distribution", string(dist)), zap.Error(err))
			continue
		}
		c, err := portfolio.ParametricCVaR(ret, std, dist, mc.Alpha, *dof)
		if err != nil {
			app.Logger.Warn("parametric CVaR", zap.String("distribution", string(dist)), zap.Error(err))
			continue
		}
		out.VaR = append(out.VaR, row(string(dist), v, c, out.Value))
	}

	app.Logger.Info("running monte carlo",
		zap.Int("simulations", mc.Simulations),
		zap.Int("horizon", mc.Horizon),
		zap.Uint64("seed", mc.Seed))
	out.MonteCarlo, err = portfolio.MonteCarlo(portfolio.Simulation{
		Returns: rows,
		Weights: w,
		Initial: out.Value,
		Days:    mc.Horizon,
		Sims:    mc.Simulations,
		Seed:    mc.Seed,
	}, mc.Alpha)
	if err != nil {
		app.Fatal("monte carlo", err)
	}

	printReport(out, bench)
	app.Save(*save, "portfolio_risk", out)
}

func row(method string, v, c, value float64) varRow {
	return varRow{Method: method, VaR: v, CVaR: c, Dollars: v * value, CDollar: c * value}
}

func optional(p *float64) string {
	if p == nil || math.IsNaN(*p) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *p)
}

func printReport(out output, bench string) {
	r := out.Risk
	fmt.Println("\n=== Portfolio Risk Dashboard ===")
	fmt.Printf("Portfolio value: $%.2f across %d positions\n", out.Value, r.Positions)
	fmt.Printf("Annualized return:     %8.2f%%\n", r.AnnualizedReturn)
	fmt.Printf("Annualized volatility: %8.2f%%  (%s)\n", r.Volatility, out.Assessment.Volatility)
	fmt.Printf("Downside deviation:    %8.2f%%\n", r.DownsideDeviation)
	fmt.Printf("Sharpe: %.2f (%s)  Sortino: %s  Beta vs %s: %s\n",
		r.Sharpe, out.Assessment.Sharpe, optional(r.Sortino), bench, optional(r.Beta))
	fmt.Printf("Daily VaR 95%%: %.2f%%  VaR 99%%: %.2f%%  Expected shortfall: %.2f%%\n",
		r.VaR95, r.VaR99, r.ExpectedShortfall)
	fmt.Printf("Skewness: %.3f  Excess kurtosis: %.3f\n", r.Skewness, r.Kurtosis)
	fmt.Printf("Concentration: HHI %.3f, %s\n", r.HHI, r.Concentration)
	fmt.Printf("Drawdown risk: %s\n", out.Assessment.Drawdown)

	fmt.Printf("\n=== %d-day VaR at %.0f%% ===\n", out.Horizon, 100-out.Alpha)
	fmt.Printf("%-16s %10s %12s %10s %12s\n", "Method", "VaR", "VaR $", "CVaR", "CVaR $")
	for _, v := range out.VaR {
		fmt.Printf("%-16s %9.2f%% %12.2f %9.2f%% %12.2f\n", v.Method, v.VaR*100, v.Dollars, v.CVaR*100, v.CDollar)
	}

	mc := out.MonteCarlo
	if n := len(mc.Median); n > 0 {
		fmt.Printf("\n=== Monte Carlo, %d days ===\n", out.Horizon)
		fmt.Printf("Final value 5th pct: $%.2f  median: $%.2f  95th pct: $%.2f\n", mc.P5[n-1], mc.Median[n-1], mc.P95[n-1])
		fmt.Printf("VaR: $%.2f  CVaR: $%.2f\n", mc.VaR, mc.CVaR)
	}
}
