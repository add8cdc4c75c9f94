package portfolio

import (
	"errors"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

const (
	DEFAULT_SIMULATIONS = 10000
	DEFAULT_HORIZON     = 252
)

// Simulation configures a correlated-normal Monte Carlo of portfolio value.
type Simulation struct {
	Returns [][]float64 // historical daily returns, one column per asset
	Weights []float64
	Initial float64
	Days    int
	Sims    int
	Seed    uint64
}

// SimulationResult keeps the final values and a percentile band per day.
type SimulationResult struct {
	Final  []float64 `json:"-"`
	P5     []float64 `json:"p5"`
	Median []float64 `json:"median"`
	P95    []float64 `json:"p95"`

	VaR  float64 `json:"var"`  // initial minus the alpha percentile of final values
	CVaR float64 `json:"cvar"` // initial minus the mean final value at or below it
}

// MonteCarlo draws daily asset returns as mean + L*z where L is the
// Cholesky factor of the historical covariance, and compounds the weighted
// portfolio return over Days for each simulation.
func MonteCarlo(s Simulation, alpha float64) (SimulationResult, error) {
	if s.Days <= 0 || s.Sims <= 0 {
		return SimulationResult{}, errors.New("montecarlo: days and sims must be positive")
	}
	means, cov, err := MeanCov(s.Returns)
	if err != nil {
		return SimulationResult{}, err
	}
	n := len(means)
	if len(s.Weights) != n {
		return SimulationResult{}, ErrMisalignedSeries
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(cov); !ok {
		return SimulationResult{}, ErrNotPositiveDefinite
	}
	var L mat.TriDense
	chol.LTo(&L)

	rng := rand.New(rand.NewPCG(s.Seed, s.Seed^0x9e3779b97f4a7c15))
	paths := make([][]float64, s.Days) // day-major so each day's column is contiguous
	for d := range paths {
		paths[d] = make([]float64, s.Sims)
	}

	z := mat.NewVecDense(n, nil)
	shock := mat.NewVecDense(n, nil)
	res := SimulationResult{Final: make([]float64, s.Sims)}
	for sim := 0; sim < s.Sims; sim++ {
		value := s.Initial
		for d := 0; d < s.Days; d++ {
			for i := 0; i < n; i++ {
				z.SetVec(i, rng.NormFloat64())
			}
			shock.MulVec(&L, z)
			port := 0.0
			for i, w := range s.Weights {
				port += w * (means[i] + shock.AtVec(i))
			}
			value *= 1 + port
			paths[d][sim] = value
		}
		res.Final[sim] = value
	}

	res.P5 = make([]float64, s.Days)
	res.Median = make([]float64, s.Days)
	res.P95 = make([]float64, s.Days)
	for d, col := range paths {
		res.P5[d] = Percentile(col, 5)
		res.Median[d] = Percentile(col, 50)
		res.P95[d] = Percentile(col, 95)
	}

	res.VaR = s.Initial - MCVaR(res.Final, alpha)
	res.CVaR = s.Initial - MCCVaR(res.Final, alpha)
	return res, nil
}

// MCVaR is the alpha percentile of simulated final values.
func MCVaR(finals []float64, alpha float64) float64 {
	return Percentile(finals, alpha)
}

// MCCVaR is the mean simulated final value at or below MCVaR.
func MCCVaR(finals []float64, alpha float64) float64 {
	return meanAtOrBelow(finals, MCVaR(finals, alpha))
}
