package indicators

import (
	"math"

	"marketlab/pkg/candle"
)

// Default periods used by the screeners and backtests.
const (
	RSI_PERIOD        = 14
	ATR_PERIOD        = 14
	BOLLINGER_PERIOD  = 20
	BOLLINGER_STDDEV  = 2.0
	MACD_FAST         = 12
	MACD_SLOW         = 26
	MACD_SIGNAL       = 9
	SUPERTREND_PERIOD = 10
	SUPERTREND_MULT   = 3.0
	CHANDELIER_PERIOD = 22
	CHANDELIER_MULT   = 3.0
)

var nan = math.NaN()

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = nan
	}
	return out
}

// SMA is a trailing simple moving average. A window holding any NaN,
// including the first period-1 positions, yields NaN.
func SMA(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period < 1 {
		return out
	}
	for i := period - 1; i < len(values); i++ {
		sum := 0.0
		for _, v := range values[i-period+1 : i+1] {
			sum += v
		}
		out[i] = sum / float64(period)
	}
	return out
}

// EMA uses alpha = 2/(period+1). With adjust the early values are
// weighted averages of all observations so far; without it the recursion
// starts from the first value.
func EMA(values []float64, period int, adjust bool) []float64 {
	out := nanSlice(len(values))
	if period < 1 || len(values) == 0 {
		return out
	}
	alpha := 2.0 / float64(period+1)
	decay := 1 - alpha

	started := false
	num, den, ema := 0.0, 0.0, 0.0
	for i, v := range values {
		if math.IsNaN(v) {
			if started {
				out[i] = ema
			}
			continue
		}
		if adjust {
			num = v + decay*num
			den = 1 + decay*den
			ema = num / den
		} else if !started {
			ema = v
		} else {
			ema = alpha*v + decay*ema
		}
		started = true
		out[i] = ema
	}
	return out
}

// RollingStd is the sample (ddof=1) standard deviation over a trailing window.
func RollingStd(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period < 2 {
		return out
	}
	for i := period - 1; i < len(values); i++ {
		window := values[i-period+1 : i+1]
		mean := 0.0
		for _, v := range window {
			mean += v
		}
		mean /= float64(period)
		ss := 0.0
		for _, v := range window {
			ss += (v - mean) * (v - mean)
		}
		out[i] = math.Sqrt(ss / float64(period-1))
	}
	return out
}

// RollingMax / RollingMin over a trailing window, NaN until the window fills.
func RollingMax(values []float64, period int) []float64 {
	return rollingExtreme(values, period, func(a, b float64) bool { return a > b })
}

func RollingMin(values []float64, period int) []float64 {
	return rollingExtreme(values, period, func(a, b float64) bool { return a < b })
}

func rollingExtreme(values []float64, period int, better func(a, b float64) bool) []float64 {
	out := nanSlice(len(values))
	if period < 1 {
		return out
	}
	for i := period - 1; i < len(values); i++ {
		best := values[i-period+1]
		for _, v := range values[i-period+2 : i+1] {
			if better(v, best) {
				best = v
			}
		}
		out[i] = best
	}
	return out
}

// RSI uses simple rolling means of gains and losses. A window with no
// losses reads 100.
func RSI(closes []float64, period int) []float64 {
	out := nanSlice(len(closes))
	if period < 1 || len(closes) <= period {
		return out
	}
	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gains[i] = d
		} else {
			losses[i] = -d
		}
	}
	for i := period; i < len(closes); i++ {
		g, l := 0.0, 0.0
		for j := i - period + 1; j <= i; j++ {
			g += gains[j]
			l += losses[j]
		}
		if l == 0 {
			out[i] = 100
			continue
		}
		rs := (g / float64(period)) / (l / float64(period))
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

// TrueRange of each bar; the first bar has no prior close and uses high-low.
func TrueRange(bars []candle.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		tr := b.High - b.Low
		if i > 0 {
			prev := bars[i-1].Close
			tr = max(tr, math.Abs(b.High-prev), math.Abs(b.Low-prev))
		}
		out[i] = tr
	}
	return out
}

// ATR is the rolling mean of the true range.
func ATR(bars []candle.Bar, period int) []float64 {
	return SMA(TrueRange(bars), period)
}

// ADR is the average daily range in percent over the last period bars.
func ADR(bars []candle.Bar, period int) float64 {
	if len(bars) == 0 {
		return 0
	}
	if period > len(bars) {
		period = len(bars)
	}
	sum, n := 0.0, 0
	for _, b := range bars[len(bars)-period:] {
		if b.Low > 0 {
			sum += (b.High - b.Low) / b.Low * 100
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

type Bands struct {
	Middle []float64
	Upper  []float64
	Lower  []float64
}

func Bollinger(closes []float64, period int, width float64) Bands {
	mid := SMA(closes, period)
	std := RollingStd(closes, period)
	b := Bands{Middle: mid, Upper: nanSlice(len(closes)), Lower: nanSlice(len(closes))}
	for i := range closes {
		b.Upper[i] = mid[i] + width*std[i]
		b.Lower[i] = mid[i] - width*std[i]
	}
	return b
}

type MACDResult struct {
	Line      []float64
	Signal    []float64
	Histogram []float64
}

func MACD(closes []float64, fast, slow, signal int, adjust bool) MACDResult {
	f := EMA(closes, fast, adjust)
	s := EMA(closes, slow, adjust)
	line := make([]float64, len(closes))
	for i := range closes {
		line[i] = f[i] - s[i]
	}
	sig := EMA(line, signal, adjust)
	hist := make([]float64, len(closes))
	for i := range closes {
		hist[i] = line[i] - sig[i]
	}
	return MACDResult{Line: line, Signal: sig, Histogram: hist}
}

type SuperTrendResult struct {
	Value []float64
	Trend []int // 1 up, -1 down, 0 undefined
	Upper []float64
	Lower []float64
}

// SuperTrend ratchets the ATR bands toward price. An uptrend flips down when
// the close breaks the previous lower band, a downtrend flips up when it
// clears the previous upper band.
func SuperTrend(bars []candle.Bar, period int, mult float64) SuperTrendResult {
	n := len(bars)
	atr := ATR(bars, period)
	res := SuperTrendResult{
		Value: nanSlice(n),
		Trend: make([]int, n),
		Upper: make([]float64, n),
		Lower: make([]float64, n),
	}
	for i, b := range bars {
		hl2 := (b.High + b.Low) / 2
		res.Upper[i] = hl2 + mult*atr[i]
		res.Lower[i] = hl2 - mult*atr[i]
	}

	for i := 1; i < n; i++ {
		prevClose := bars[i-1].Close
		if prevClose <= res.Upper[i-1] {
			res.Upper[i] = math.Min(res.Upper[i], res.Upper[i-1])
		}
		if prevClose >= res.Lower[i-1] {
			res.Lower[i] = math.Max(res.Lower[i], res.Lower[i-1])
		}

		close := bars[i].Close
		switch {
		case i == 1:
			res.Trend[i] = 1
		case res.Trend[i-1] == -1 && close > res.Upper[i-1]:
			res.Trend[i] = 1
		case res.Trend[i-1] == 1 && close < res.Lower[i-1]:
			res.Trend[i] = -1
		default:
			res.Trend[i] = res.Trend[i-1]
		}

		if res.Trend[i] == 1 {
			res.Value[i] = res.Lower[i]
		} else {
			res.Value[i] = res.Upper[i]
		}
	}
	return res
}

type ChandelierResult struct {
	ATR       []float64
	LongStop  []float64
	ShortStop []float64
	Dir       []int
	Buy       []bool
	Sell      []bool
}

// Chandelier computes the chandelier exit. Stops only move in the trade's
// favour while price stays on the right side of them.
func Chandelier(bars []candle.Bar, period int, mult float64, useClose bool) ChandelierResult {
	n := len(bars)
	atr := ATR(bars, period)

	var hi, lo []float64
	if useClose {
		closes := candle.Closes(bars)
		hi, lo = RollingMax(closes, period), RollingMin(closes, period)
	} else {
		hi, lo = RollingMax(candle.Highs(bars), period), RollingMin(candle.Lows(bars), period)
	}

	res := ChandelierResult{
		ATR:       atr,
		LongStop:  make([]float64, n),
		ShortStop: make([]float64, n),
		Dir:       make([]int, n),
		Buy:       make([]bool, n),
		Sell:      make([]bool, n),
	}
	raw := make([]float64, n)
	rawShort := make([]float64, n)
	for i := range bars {
		raw[i] = hi[i] - atr[i]*mult
		rawShort[i] = lo[i] + atr[i]*mult
	}

	dir := 1
	for i := 0; i < n; i++ {
		longPrev, shortPrev := raw[i], rawShort[i]
		if i > 0 {
			longPrev, shortPrev = raw[i-1], rawShort[i-1]
		}

		res.LongStop[i] = raw[i]
		res.ShortStop[i] = rawShort[i]
		if i > 0 {
			prevClose := bars[i-1].Close
			if prevClose > longPrev {
				res.LongStop[i] = math.Max(raw[i], longPrev)
			}
			if prevClose < shortPrev {
				res.ShortStop[i] = math.Min(rawShort[i], shortPrev)
			}
		}

		close := bars[i].Close
		prevDir := dir
		switch {
		case close > shortPrev:
			dir = 1
		case close < longPrev:
			dir = -1
		}
		res.Dir[i] = dir
		if i > 0 {
			res.Buy[i] = dir == 1 && prevDir == -1
			res.Sell[i] = dir == -1 && prevDir == 1
		}
	}
	return res
}

// TrendSlope is the least-squares slope of the last period values at each point.
func TrendSlope(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period < 2 {
		return out
	}
	xMean := float64(period-1) / 2
	den := 0.0
	for x := 0; x < period; x++ {
		den += (float64(x) - xMean) * (float64(x) - xMean)
	}
	for i := period - 1; i < len(values); i++ {
		window := values[i-period+1 : i+1]
		yMean := 0.0
		for _, v := range window {
			yMean += v
		}
		yMean /= float64(period)
		num := 0.0
		for x, v := range window {
			num += (float64(x) - xMean) * (v - yMean)
		}
		out[i] = num / den
	}
	return out
}
