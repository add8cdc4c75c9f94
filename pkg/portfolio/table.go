package portfolio

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

const TRADING_DAYS_PER_YEAR = 252

var (
	ErrInsufficientData    = errors.New("portfolio: need at least two observations")
	ErrEmptyPortfolio      = errors.New("portfolio: no priced positions")
	ErrMisalignedSeries    = errors.New("portfolio: series lengths differ")
	ErrNotPositiveDefinite = errors.New("portfolio: covariance matrix is not positive definite")
)

// PriceTable holds close prices per ticker aligned on a shared date index.
type PriceTable struct {
	Dates  []time.Time
	Closes map[string][]float64
}

// Positions maps ticker to share count.
type Positions map[string]float64

func (p Positions) Tickers() []string {
	out := make([]string, 0, len(p))
	for t := range p {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Len is the number of dates in the table.
func (t PriceTable) Len() int { return len(t.Dates) }

// Validate checks that every column matches the date index.
func (t PriceTable) Validate() error {
	for sym, col := range t.Closes {
		if len(col) != len(t.Dates) {
			return fmt.Errorf("%s has %d closes for %d dates: %w", sym, len(col), len(t.Dates), ErrMisalignedSeries)
		}
	}
	return nil
}

// held returns the tickers that are both priced and held, sorted.
func (t PriceTable) held(positions Positions) []string {
	var out []string
	for _, sym := range positions.Tickers() {
		if _, ok := t.Closes[sym]; ok && positions[sym] != 0 {
			out = append(out, sym)
		}
	}
	return out
}

// Values returns the daily total portfolio value. Positions without a price
// column are ignored.
func (t PriceTable) Values(positions Positions) ([]float64, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	held := t.held(positions)
	if len(held) == 0 {
		return nil, ErrEmptyPortfolio
	}
	out := make([]float64, t.Len())
	for _, sym := range held {
		shares := positions[sym]
		for i, c := range t.Closes[sym] {
			out[i] += c * shares
		}
	}
	return out, nil
}

// Weights returns each holding's share of the final portfolio value.
func (t PriceTable) Weights(positions Positions) (map[string]float64, error) {
	if t.Len() == 0 {
		return nil, ErrInsufficientData
	}
	held := t.held(positions)
	last := t.Len() - 1
	total := 0.0
	for _, sym := range held {
		total += t.Closes[sym][last] * positions[sym]
	}
	if total == 0 {
		return nil, ErrEmptyPortfolio
	}
	out := make(map[string]float64, len(held))
	for _, sym := range held {
		out[sym] = t.Closes[sym][last] * positions[sym] / total
	}
	return out, nil
}

// Returns converts a value series into simple daily returns (len-1 values).
func Returns(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, values[i]/values[i-1]-1)
	}
	return out
}

// ReturnMatrix builds the daily return rows for the given tickers, one
// column per ticker in order.
func (t PriceTable) ReturnMatrix(tickers []string) ([][]float64, error) {
	if t.Len() < 2 {
		return nil, ErrInsufficientData
	}
	cols := make([][]float64, len(tickers))
	for j, sym := range tickers {
		closes, ok := t.Closes[sym]
		if !ok {
			return nil, fmt.Errorf("no prices for %s: %w", sym, ErrEmptyPortfolio)
		}
		cols[j] = Returns(closes)
	}
	rows := make([][]float64, t.Len()-1)
	for i := range rows {
		rows[i] = make([]float64, len(tickers))
		for j := range tickers {
			rows[i][j] = cols[j][i]
		}
	}
	return rows, nil
}
