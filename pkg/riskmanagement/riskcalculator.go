package riskmanagement

import (
	"errors"
	"math"
)

var ErrInvalidRisk = errors.New("riskmanagement: account size and risk percent must be positive")

// Sizing is the breakdown behind a position size.
type Sizing struct {
	RiskPerShare  float64 `json:"risk_per_share"`
	MaxRiskAmount float64 `json:"max_risk_amount"`
	Shares        int64   `json:"shares"`
}

// PositionSize returns the whole number of shares that keeps the loss at
// the stop within riskPerc percent of the account. An entry equal to the
// stop sizes to zero.
func PositionSize(accSize, riskPerc, entry, stop float64) (Sizing, error) {
	if accSize <= 0 || riskPerc <= 0 {
		return Sizing{}, ErrInvalidRisk
	}
	s := Sizing{
		RiskPerShare:  math.Abs(entry - stop),
		MaxRiskAmount: accSize * (riskPerc / 100),
	}
	if s.RiskPerShare == 0 {
		return s, nil
	}
	s.Shares = int64(math.Floor(s.MaxRiskAmount / s.RiskPerShare))
	return s, nil
}
