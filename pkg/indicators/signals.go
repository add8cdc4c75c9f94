package indicators

import (
	"math"
	"time"

	"marketlab/pkg/candle"
)

type Action string

const (
	Buy  Action = "BUY"
	Sell Action = "SELL"
	Hold Action = "HOLD"
)

// last2 returns the final two values of s, or ok=false when either is NaN.
func last2(s []float64) (prev, curr float64, ok bool) {
	if len(s) < 2 {
		return 0, 0, false
	}
	prev, curr = s[len(s)-2], s[len(s)-1]
	return prev, curr, !math.IsNaN(prev) && !math.IsNaN(curr)
}

// SuperTrendSignal is BUY on a down-to-up flip and SELL on the reverse.
func SuperTrendSignal(st SuperTrendResult) Action {
	n := len(st.Trend)
	if n < 2 {
		return Hold
	}
	prev, curr := st.Trend[n-2], st.Trend[n-1]
	switch {
	case prev == -1 && curr == 1:
		return Buy
	case prev == 1 && curr == -1:
		return Sell
	}
	return Hold
}

// BollingerSignal reads a touch of the upper band as a breakout buy and a
// touch of the lower band as a sell.
func BollingerSignal(bar candle.Bar, b Bands) Action {
	n := len(b.Upper)
	if n == 0 || math.IsNaN(b.Upper[n-1]) {
		return Hold
	}
	upper, lower := b.Upper[n-1], b.Lower[n-1]
	switch {
	case bar.High >= upper || bar.Close >= upper:
		return Buy
	case bar.Low <= lower || bar.Close <= lower:
		return Sell
	}
	return Hold
}

// MACDSignal fires when the histogram crosses zero.
func MACDSignal(m MACDResult) Action {
	prev, curr, ok := last2(m.Histogram)
	if !ok {
		return Hold
	}
	switch {
	case prev <= 0 && curr > 0:
		return Buy
	case prev >= 0 && curr < 0:
		return Sell
	}
	return Hold
}

func RSISignal(rsi []float64, oversold, overbought float64) Action {
	if len(rsi) == 0 {
		return Hold
	}
	v := rsi[len(rsi)-1]
	switch {
	case math.IsNaN(v):
		return Hold
	case v < oversold:
		return Buy
	case v > overbought:
		return Sell
	}
	return Hold
}

// DualMA is a fast/slow moving-average crossover with RSI confirmation.
type DualMA struct {
	Fast       []float64
	Slow       []float64
	RSI        []float64
	Slope      []float64 // least-squares slope of the slow average
	Crossovers []Action  // BUY/SELL on the bar the cross happens
}

const (
	DUALMA_FAST  = 20
	DUALMA_SLOW  = 50
	SLOPE_WINDOW = 5
)

func DualMovingAverage(closes []float64, fast, slow int) DualMA {
	d := DualMA{
		Fast:       SMA(closes, fast),
		Slow:       SMA(closes, slow),
		RSI:        RSI(closes, RSI_PERIOD),
		Crossovers: make([]Action, len(closes)),
	}
	d.Slope = TrendSlope(d.Slow, SLOPE_WINDOW)
	for i := range closes {
		d.Crossovers[i] = Hold
		if i == 0 {
			continue
		}
		pf, ps, cf, cs := d.Fast[i-1], d.Slow[i-1], d.Fast[i], d.Slow[i]
		if math.IsNaN(pf) || math.IsNaN(ps) {
			continue
		}
		switch {
		case pf <= ps && cf > cs:
			d.Crossovers[i] = Buy
		case pf >= ps && cf < cs:
			d.Crossovers[i] = Sell
		}
	}
	return d
}

// Confirmed reports whether the crossover at i is backed by RSI: a buy
// needs RSI in 40-80, a sell needs RSI in 20-60.
func (d DualMA) Confirmed(i int) bool {
	if i < 0 || i >= len(d.Crossovers) {
		return false
	}
	r := d.RSI[i]
	if math.IsNaN(r) {
		return false
	}
	switch d.Crossovers[i] {
	case Buy:
		return r >= 40 && r <= 80
	case Sell:
		return r >= 20 && r <= 60
	}
	return false
}

// TrendStrength is the slow average's slope relative to price, in percent.
func (d DualMA) TrendStrength(i int, price float64) float64 {
	if i < 0 || i >= len(d.Slope) || price == 0 || math.IsNaN(d.Slope[i]) {
		return 0
	}
	return d.Slope[i] / price * 100
}

const (
	RSI_OVERSOLD   = 30.0
	RSI_OVERBOUGHT = 70.0
)

// Snapshot is the latest reading of every signal helper on one series.
type Snapshot struct {
	Time          time.Time `json:"time"`
	Close         float64   `json:"close"`
	RSI           *float64  `json:"rsi,omitempty"`
	ATR           *float64  `json:"atr,omitempty"`
	TrendStrength float64   `json:"trend_strength"`
	SuperTrend    Action    `json:"supertrend"`
	Bollinger     Action    `json:"bollinger"`
	MACD          Action    `json:"macd"`
	RSISignal     Action    `json:"rsi_signal"`
	DualMA        Action    `json:"dual_ma"`
}

// Evaluate runs the indicators with their default settings and reads the
// signal on the final bar.
func Evaluate(bars []candle.Bar) Snapshot {
	if len(bars) == 0 {
		return Snapshot{SuperTrend: Hold, Bollinger: Hold, MACD: Hold, RSISignal: Hold, DualMA: Hold}
	}
	closes := candle.Closes(bars)
	last := len(bars) - 1
	rsi := RSI(closes, RSI_PERIOD)
	dual := DualMovingAverage(closes, DUALMA_FAST, DUALMA_SLOW)

	s := Snapshot{
		Time:          bars[last].Time,
		Close:         closes[last],
		RSI:           finite(rsi[last]),
		ATR:           finite(ATR(bars, ATR_PERIOD)[last]),
		TrendStrength: dual.TrendStrength(last, closes[last]),
		SuperTrend:    SuperTrendSignal(SuperTrend(bars, SUPERTREND_PERIOD, SUPERTREND_MULT)),
		Bollinger:     BollingerSignal(bars[last], Bollinger(closes, BOLLINGER_PERIOD, BOLLINGER_STDDEV)),
		MACD:          MACDSignal(MACD(closes, MACD_FAST, MACD_SLOW, MACD_SIGNAL, true)),
		RSISignal:     RSISignal(rsi, RSI_OVERSOLD, RSI_OVERBOUGHT),
		DualMA:        Hold,
	}
	if dual.Confirmed(last) {
		s.DualMA = dual.Crossovers[last]
	}
	return s
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
