package portfolio

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

type Distribution string

const (
	Normal   Distribution = "normal"
	StudentT Distribution = "t-distribution"

	DEFAULT_ALPHA = 5.0 // percent
	DEFAULT_DOF   = 6
)

// HistoricalVaR is the alpha-th percentile (alpha in percent) of returns.
// Losses come out negative.
func HistoricalVaR(returns []float64, alpha float64) float64 {
	return Percentile(returns, alpha)
}

// HistoricalCVaR averages the returns at or below the historical VaR.
func HistoricalCVaR(returns []float64, alpha float64) float64 {
	return meanAtOrBelow(returns, HistoricalVaR(returns, alpha))
}

// HorizonScale converts a one-day figure to horizon days by the square root
// of time. Horizons below one day are treated as one.
func HorizonScale(v float64, horizon int) float64 {
	return v * math.Sqrt(float64(max(horizon, 1)))
}

// Performance is the expected return and standard deviation of a weighted
// portfolio over horizon days.
func Performance(weights, means []float64, cov *mat.SymDense, horizon int) (ret, std float64) {
	for i, w := range weights {
		ret += w * means[i]
	}
	ret *= float64(horizon)

	w := mat.NewVecDense(len(weights), weights)
	variance := mat.Inner(w, cov, w)
	std = math.Sqrt(variance) * math.Sqrt(float64(horizon))
	return ret, std
}

// ParametricVaR assumes returns follow dist; the result is a positive loss
// fraction. alpha is in percent.
func ParametricVaR(ret, std float64, dist Distribution, alpha float64, dof float64) (float64, error) {
	a := alpha / 100
	switch dist {
	case Normal:
		n := distuv.Normal{Mu: 0, Sigma: 1}
		return n.Quantile(1-a)*std - ret, nil
	case StudentT:
		if dof <= 2 {
			return 0, fmt.Errorf("student-t needs more than 2 degrees of freedom, got %v", dof)
		}
		t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: dof}
		return math.Sqrt((dof-2)/dof)*t.Quantile(1-a)*std - ret, nil
	}
	return 0, fmt.Errorf("unknown distribution %q", dist)
}

// ParametricCVaR is the expected loss beyond the parametric VaR.
func ParametricCVaR(ret, std float64, dist Distribution, alpha float64, dof float64) (float64, error) {
	a := alpha / 100
	switch dist {
	case Normal:
		n := distuv.Normal{Mu: 0, Sigma: 1}
		return n.Prob(n.Quantile(a))/a*std - ret, nil
	case StudentT:
		if dof <= 2 {
			return 0, fmt.Errorf("student-t needs more than 2 degrees of freedom, got %v", dof)
		}
		t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: dof}
		x := t.Quantile(a)
		return -1/a*(1/(1-dof))*(dof-2+x*x)*t.Prob(x)*std - ret, nil
	}
	return 0, fmt.Errorf("unknown distribution %q", dist)
}

// MeanCov returns the per-column mean and the sample covariance of a
// returns matrix (rows are days, columns are assets).
func MeanCov(rows [][]float64) ([]float64, *mat.SymDense, error) {
	if len(rows) < 2 {
		return nil, nil, ErrInsufficientData
	}
	cols := len(rows[0])
	data := mat.NewDense(len(rows), cols, nil)
	for i, row := range rows {
		if len(row) != cols {
			return nil, nil, ErrMisalignedSeries
		}
		data.SetRow(i, row)
	}

	means := make([]float64, cols)
	for j := range means {
		means[j] = stat.Mean(mat.Col(nil, j, data), nil)
	}
	cov := mat.NewSymDense(cols, nil)
	stat.CovarianceMatrix(cov, data, nil)
	return means, cov, nil
}
