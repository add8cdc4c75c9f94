package portfolio

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"marketlab/pkg/indicators"
)

// BETA_MIN_OBSERVATIONS is the number of aligned returns beta needs
// before it is reported.
const BETA_MIN_OBSERVATIONS = 10

// Concentration labels by HHI.
const (
	HighConcentration     = "High concentration risk"
	ModerateConcentration = "Moderate concentration risk"
	WellDiversified       = "Well diversified"
)

// Risk figures are in percent units: a 1.5% daily move is 1.5.
type Risk struct {
	DailyReturns      indicators.Series `json:"daily_returns"`
	DailyVolatility   float64           `json:"daily_volatility"`
	Volatility        float64           `json:"annualized_volatility"`
	DownsideDeviation float64           `json:"downside_deviation"`
	VaR95             float64           `json:"var_95"`
	VaR99             float64           `json:"var_99"`
	ExpectedShortfall float64           `json:"expected_shortfall_95"`
	AnnualizedReturn  float64           `json:"annualized_return"`
	Sharpe            float64           `json:"sharpe"`
	Sortino           *float64          `json:"sortino,omitempty"`
	Beta              *float64          `json:"beta,omitempty"`
	Skewness          float64           `json:"skewness"`
	Kurtosis          float64           `json:"kurtosis"`
	HHI               float64           `json:"hhi"`
	Concentration     string            `json:"concentration"`
	Positions         int               `json:"positions"`
	RollingVol30      indicators.Series `json:"rolling_vol_30"`
	RollingVol60      indicators.Series `json:"rolling_vol_60"`
}

// PercentReturns is the daily percent change of a value series.
func PercentReturns(values []float64) []float64 {
	r := Returns(values)
	for i := range r {
		r[i] *= 100
	}
	return r
}

// BaseReturns is each day's value change as a percent of the first value,
// so every return shares the same denominator.
func BaseReturns(values []float64) []float64 {
	if len(values) < 2 || values[0] == 0 {
		return nil
	}
	out := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		out[i-1] = (values[i] - values[i-1]) / values[0] * 100
	}
	return out
}

// Beta is the sample covariance of portfolio and benchmark returns over the
// population variance of the benchmark. It is NaN with fewer than
// BETA_MIN_OBSERVATIONS+1 aligned points or a flat benchmark.
func Beta(rets, benchmark []float64) float64 {
	n := min(len(rets), len(benchmark))
	if n <= BETA_MIN_OBSERVATIONS {
		return math.NaN()
	}
	rets, benchmark = rets[len(rets)-n:], benchmark[len(benchmark)-n:]
	v := stat.PopVariance(benchmark, nil)
	if v == 0 {
		return math.NaN()
	}
	return stat.Covariance(rets, benchmark, nil) / v
}

// ComputeRisk derives the risk dashboard from daily portfolio values.
// benchmark may be nil; when given it must align with values. weights are
// position values or fractions; only their relative size matters.
func ComputeRisk(values, benchmark []float64, weights map[string]float64) (Risk, error) {
	if len(values) < 3 {
		return Risk{}, ErrInsufficientData
	}
	if benchmark != nil && len(benchmark) != len(values) {
		return Risk{}, ErrMisalignedSeries
	}
	if values[0] == 0 {
		return Risk{}, ErrEmptyPortfolio
	}

	rets := BaseReturns(values)
	sqrtYear := math.Sqrt(TRADING_DAYS_PER_YEAR)

	r := Risk{DailyReturns: rets, Positions: len(weights)}
	r.DailyVolatility = stat.StdDev(rets, nil)
	r.Volatility = r.DailyVolatility * sqrtYear

	down := negatives(rets)
	downStd := math.NaN()
	if len(down) > 1 {
		downStd = stat.StdDev(down, nil)
		r.DownsideDeviation = downStd * sqrtYear
	}

	r.VaR95 = Percentile(rets, 5)
	r.VaR99 = Percentile(rets, 1)
	r.ExpectedShortfall = meanBelow(rets, r.VaR95)

	r.AnnualizedReturn = stat.Mean(rets, nil) * TRADING_DAYS_PER_YEAR
	if r.Volatility > 0 {
		r.Sharpe = r.AnnualizedReturn / r.Volatility
	}
	if downStd > 0 {
		s := r.AnnualizedReturn / (downStd * sqrtYear)
		r.Sortino = &s
	}

	if benchmark != nil {
		if beta := Beta(rets, PercentReturns(benchmark)); !math.IsNaN(beta) {
			r.Beta = &beta
		}
	}

	m2 := stat.Moment(2, rets, nil)
	if m2 > 0 {
		r.Skewness = stat.Moment(3, rets, nil) / math.Pow(m2, 1.5)
		r.Kurtosis = stat.Moment(4, rets, nil)/(m2*m2) - 3
	}

	r.HHI = HHI(weights)
	r.Concentration = ConcentrationLabel(r.HHI)

	r.RollingVol30 = rollingVol(rets, 30)
	r.RollingVol60 = rollingVol(rets, 60)
	return r, nil
}

// HHI is the Herfindahl-Hirschman index of absolute position weights.
func HHI(weights map[string]float64) float64 {
	total := 0.0
	for _, w := range weights {
		total += math.Abs(w)
	}
	if total == 0 {
		return 0
	}
	h := 0.0
	for _, w := range weights {
		s := math.Abs(w) / total
		h += s * s
	}
	return h
}

func ConcentrationLabel(hhi float64) string {
	switch {
	case hhi > 0.25:
		return HighConcentration
	case hhi > 0.15:
		return ModerateConcentration
	}
	return WellDiversified
}

// Assessment grades volatility (annualized %), max drawdown (positive %)
// and Sharpe into Low/Moderate/High or Good/Moderate/Poor.
type Assessment struct {
	Volatility string `json:"volatility"`
	Drawdown   string `json:"drawdown"`
	Sharpe     string `json:"risk_adjusted"`
}

func Assess(volatility, maxDrawdownPct, sharpe float64) Assessment {
	var a Assessment
	switch {
	case volatility < 15:
		a.Volatility = "Low"
	case volatility < 25:
		a.Volatility = "Moderate"
	default:
		a.Volatility = "High"
	}
	switch dd := math.Abs(maxDrawdownPct); {
	case dd < 10:
		a.Drawdown = "Low"
	case dd < 20:
		a.Drawdown = "Moderate"
	default:
		a.Drawdown = "High"
	}
	switch {
	case sharpe > 1:
		a.Sharpe = "Good"
	case sharpe > 0.5:
		a.Sharpe = "Moderate"
	default:
		a.Sharpe = "Poor"
	}
	return a
}

func rollingVol(rets []float64, window int) []float64 {
	out := indicators.RollingStd(rets, window)
	sq := math.Sqrt(TRADING_DAYS_PER_YEAR)
	for i := range out {
		out[i] *= sq
	}
	return out
}

func meanBelow(values []float64, cutoff float64) float64 {
	sum, n := 0.0, 0
	for _, v := range values {
		if v < cutoff {
			sum += v
			n++
		}
	}
	if n == 0 {
		return cutoff
	}
	return sum / float64(n)
}
