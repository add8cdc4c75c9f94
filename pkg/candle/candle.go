package candle

import (
	"sort"
	"time"
)

// Doji classification threshold: body smaller than 10% of the bar range.
const (
	DOJI_BODY_RATIO = 0.1
	CONTEXT_WINDOW  = 20 // bars used for the rolling body/range averages
)

// Bar is a single OHLCV observation.
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Metrics holds the derived shape of one bar.
type Metrics struct {
	Bar

	BodySize   float64
	BodyTop    float64
	BodyBottom float64
	UpperWick  float64
	LowerWick  float64
	TotalRange float64

	IsBullish bool
	IsBearish bool
	IsDoji    bool

	BodyRatio      float64
	UpperWickRatio float64
	LowerWickRatio float64

	// Rolling context (20 bars, min periods 1)
	AvgBody  float64
	AvgRange float64
}

// Compute derives per-bar metrics. Bars are expected oldest first.
func Compute(bars []Bar) []Metrics {
	out := make([]Metrics, len(bars))
	bodies := make([]float64, len(bars))
	ranges := make([]float64, len(bars))

	for i, b := range bars {
		m := Metrics{Bar: b}
		m.BodySize = abs(b.Close - b.Open)
		m.BodyTop = max(b.Open, b.Close)
		m.BodyBottom = min(b.Open, b.Close)
		m.UpperWick = b.High - m.BodyTop
		m.LowerWick = m.BodyBottom - b.Low
		m.TotalRange = b.High - b.Low

		m.IsBullish = b.Close > b.Open
		m.IsBearish = b.Close < b.Open

		if m.TotalRange > 0 {
			m.BodyRatio = m.BodySize / m.TotalRange
			m.UpperWickRatio = m.UpperWick / m.TotalRange
			m.LowerWickRatio = m.LowerWick / m.TotalRange
			m.IsDoji = m.BodyRatio < DOJI_BODY_RATIO
		} else {
			// flat bar: only a doji if open == close
			m.IsDoji = m.BodySize == 0
		}

		bodies[i] = m.BodySize
		ranges[i] = m.TotalRange
		out[i] = m
	}

	avgBody := RollingMean(bodies, CONTEXT_WINDOW)
	avgRange := RollingMean(ranges, CONTEXT_WINDOW)
	for i := range out {
		out[i].AvgBody = avgBody[i]
		out[i].AvgRange = avgRange[i]
	}

	return out
}

// RollingMean is a trailing mean with min_periods=1.
func RollingMean(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window < 1 {
		window = 1
	}
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		n := i + 1
		if n > window {
			n = window
		}
		out[i] = sum / float64(n)
	}
	return out
}

// SortByTime orders bars oldest first in place.
func SortByTime(bars []Bar) {
	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Time.Before(bars[j].Time)
	})
}

func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

func Highs(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.High
	}
	return out
}

func Lows(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Low
	}
	return out
}

// Valid reports whether a bar has usable prices.
func Valid(b Bar) bool {
	return b.High > 0 && b.Low > 0 && b.Close > 0 && b.Volume >= 0 && b.High >= b.Low
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
