package portfolio

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"marketlab/pkg/indicators"
)

// Metrics is the value/return/drawdown summary of a holding period.
type Metrics struct {
	Dates       []time.Time       `json:"dates"`
	Values      indicators.Series `json:"values"`
	DailyChange indicators.Series `json:"daily_change"` // first day 0
	MA5         indicators.Series `json:"ma_1week"`
	MA10        indicators.Series `json:"ma_2week"`
	Drawdown    indicators.Series `json:"drawdown"`
	TrendLine   indicators.Series `json:"trend_line"`

	TradingDays        int       `json:"trading_days"`
	InitialValue       float64   `json:"initial_value"`
	FinalValue         float64   `json:"final_value"`
	TotalChange        float64   `json:"total_change"`
	PercentReturn      float64   `json:"percent_return"`
	AnnualizedReturn   float64   `json:"annualized_return"`
	MaxDrawdownPct     float64   `json:"max_drawdown_pct"`
	MaxDrawdownDollars float64   `json:"max_drawdown_dollars"`
	MaxDrawdownDate    time.Time `json:"max_drawdown_date"`
	TrendSlope         float64   `json:"trend_slope"`

	GainDays       int     `json:"gain_days"`
	LossDays       int     `json:"loss_days"`
	FlatDays       int     `json:"flat_days"`
	TotalGains     float64 `json:"total_gains"`
	TotalLosses    float64 `json:"total_losses"`
	AvgDailyChange float64 `json:"average_daily_change"`
	AvgGain        float64 `json:"average_gain_on_gain_days"`
	AvgLoss        float64 `json:"average_loss_on_loss_days"`
}

// WinLossRatio is gain days over loss days; +Inf when there were no losses.
func (m Metrics) WinLossRatio() float64 {
	if m.LossDays == 0 {
		return math.Inf(1)
	}
	return float64(m.GainDays) / float64(m.LossDays)
}

func ComputeMetrics(table PriceTable, positions Positions) (Metrics, error) {
	values, err := table.Values(positions)
	if err != nil {
		return Metrics{}, err
	}
	n := len(values)
	if n < 2 {
		return Metrics{}, ErrInsufficientData
	}
	if values[0] == 0 {
		return Metrics{}, ErrEmptyPortfolio
	}

	m := Metrics{
		Dates:        table.Dates,
		Values:       values,
		TradingDays:  n,
		InitialValue: values[0],
		FinalValue:   values[n-1],
	}

	change := make([]float64, n)
	for i := 1; i < n; i++ {
		change[i] = values[i] - values[i-1]
		m.TotalChange += change[i]

		switch {
		case change[i] > 0:
			m.GainDays++
			m.TotalGains += change[i]
		case change[i] < 0:
			m.LossDays++
			m.TotalLosses += change[i]
		default:
			m.FlatDays++
		}
	}
	m.DailyChange = change
	m.MA5 = indicators.SMA(change, 5)
	m.MA10 = indicators.SMA(change, 10)

	m.PercentReturn = m.TotalChange / m.InitialValue * 100
	m.AnnualizedReturn = math.Pow(m.FinalValue/m.InitialValue, float64(TRADING_DAYS_PER_YEAR)/float64(n)) - 1

	m.AvgDailyChange = m.TotalChange / float64(n-1)
	if m.GainDays > 0 {
		m.AvgGain = m.TotalGains / float64(m.GainDays)
	}
	if m.LossDays > 0 {
		m.AvgLoss = m.TotalLosses / float64(m.LossDays)
	}

	m.Drawdown = make(indicators.Series, n)
	peak := values[0]
	for i, v := range values {
		peak = max(peak, v)
		m.Drawdown[i] = v/peak - 1
		if m.Drawdown[i] < m.MaxDrawdownPct {
			m.MaxDrawdownPct = m.Drawdown[i]
			if i < len(table.Dates) {
				m.MaxDrawdownDate = table.Dates[i]
			}
		}
		m.MaxDrawdownDollars = max(m.MaxDrawdownDollars, peak-v)
	}
	if m.MaxDrawdownPct == 0 && len(table.Dates) > 0 {
		m.MaxDrawdownDate = table.Dates[0]
	}

	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}
	intercept, slope := stat.LinearRegression(xs, values, nil, false)
	m.TrendSlope = slope
	m.TrendLine = make(indicators.Series, n)
	for i := range xs {
		m.TrendLine[i] = intercept + slope*xs[i]
	}

	return m, nil
}

// Benchmark compares the portfolio against an index normalized to the
// portfolio's starting value.
type Benchmark struct {
	Symbol          string            `json:"symbol"`
	PortfolioValues indicators.Series `json:"portfolio_values"`
	Normalized      indicators.Series `json:"benchmark_normalized"`
	PortfolioReturn float64           `json:"portfolio_return"`
	BenchmarkReturn float64           `json:"benchmark_return"`
	ExcessReturn    float64           `json:"excess_return"`
}

func CompareBenchmark(table PriceTable, positions Positions, symbol string) (Benchmark, error) {
	values, err := table.Values(positions)
	if err != nil {
		return Benchmark{}, err
	}
	bench, ok := table.Closes[symbol]
	if !ok || len(bench) < 2 {
		return Benchmark{}, ErrInsufficientData
	}
	if values[0] == 0 || bench[0] == 0 {
		return Benchmark{}, ErrEmptyPortfolio
	}

	b := Benchmark{
		Symbol:          symbol,
		PortfolioValues: values,
		Normalized:      make(indicators.Series, len(bench)),
	}
	for i, c := range bench {
		b.Normalized[i] = c / bench[0] * values[0]
	}
	last := len(values) - 1
	b.PortfolioReturn = values[last]/values[0] - 1
	b.BenchmarkReturn = b.Normalized[last]/b.Normalized[0] - 1
	b.ExcessReturn = b.PortfolioReturn - b.BenchmarkReturn
	return b, nil
}
