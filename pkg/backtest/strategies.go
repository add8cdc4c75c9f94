package backtest

import (
	"fmt"
	"math"
	"sort"

	"marketlab/pkg/candle"
	"marketlab/pkg/indicators"
)

// Signals is a strategy's output: the raw signal column and the ATR used
// by the trailing-stop runner.
type Signals struct {
	Signal []int
	ATR    []float64
}

// Events returns the entry/exit events for the signal column.
func (s Signals) Events() []int { return Events(s.Signal) }

type Strategy func(bars []candle.Bar) Signals

var strategies = map[string]Strategy{
	"chandelier": Chandelier,
	"supertrend": SuperTrend,
	"macd":       MACD,
	"rsi":        RSI,
	"breakout":   Breakout,
	"dualma":     DualMA,
}

// Lookup returns the named strategy.
func Lookup(name string) (Strategy, error) {
	s, ok := strategies[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (have %v)", name, Names())
	}
	return s, nil
}

func Names() []string {
	out := make([]string, 0, len(strategies))
	for n := range strategies {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func atr(bars []candle.Bar) []float64 {
	return indicators.ATR(bars, indicators.ATR_PERIOD)
}

func Chandelier(bars []candle.Bar) Signals {
	ce := indicators.Chandelier(bars, indicators.CHANDELIER_PERIOD, indicators.CHANDELIER_MULT, true)
	sig := make([]int, len(bars))
	for i := range bars {
		switch {
		case ce.Buy[i]:
			sig[i] = Enter
		case ce.Sell[i]:
			sig[i] = Exit
		}
	}
	return Signals{Signal: sig, ATR: ce.ATR}
}

const (
	BACKTEST_SUPERTREND_PERIOD = 7
	BACKTEST_MACD_FAST         = 6
	BACKTEST_MACD_SLOW         = 13
	BACKTEST_MACD_SIGNAL       = 5
	RSI_OVERSOLD               = 30
	RSI_OVERBOUGHT             = 70
	BREAKOUT_PERIOD            = 20
)

// SuperTrend is long while price holds above the trailing band.
func SuperTrend(bars []candle.Bar) Signals {
	st := indicators.SuperTrend(bars, BACKTEST_SUPERTREND_PERIOD, indicators.SUPERTREND_MULT)
	sig := make([]int, len(bars))
	for i, b := range bars {
		v := st.Value[i]
		if math.IsNaN(v) {
			continue
		}
		switch {
		case st.Trend[i] == 1 && b.Close > v:
			sig[i] = Enter
		case st.Trend[i] == -1 && b.Close < v:
			sig[i] = Exit
		}
	}
	return Signals{Signal: sig, ATR: atr(bars)}
}

// MACD is long while the fast MACD line is above its signal line.
func MACD(bars []candle.Bar) Signals {
	m := indicators.MACD(candle.Closes(bars), BACKTEST_MACD_FAST, BACKTEST_MACD_SLOW, BACKTEST_MACD_SIGNAL, false)
	sig := make([]int, len(bars))
	for i := range bars {
		if math.IsNaN(m.Line[i]) || math.IsNaN(m.Signal[i]) {
			continue
		}
		if m.Line[i] > m.Signal[i] {
			sig[i] = Enter
		} else {
			sig[i] = Exit
		}
	}
	return Signals{Signal: sig, ATR: atr(bars)}
}

func RSI(bars []candle.Bar) Signals {
	rsi := indicators.RSI(candle.Closes(bars), indicators.RSI_PERIOD)
	sig := make([]int, len(bars))
	for i, v := range rsi {
		switch {
		case math.IsNaN(v):
		case v < RSI_OVERSOLD:
			sig[i] = Enter
		case v > RSI_OVERBOUGHT:
			sig[i] = Exit
		}
	}
	return Signals{Signal: sig, ATR: atr(bars)}
}

// Breakout buys a close above the prior period's highest close on above
// average volume and sells a close under the average on heavy volume.
func Breakout(bars []candle.Bar) Signals {
	closes := candle.Closes(bars)
	vols := make([]float64, len(bars))
	for i, b := range bars {
		vols[i] = b.Volume
	}
	sma := indicators.SMA(closes, BREAKOUT_PERIOD)
	volSMA := indicators.SMA(vols, BREAKOUT_PERIOD)
	resistance := indicators.RollingMax(closes, BREAKOUT_PERIOD)

	sig := make([]int, len(bars))
	for i := 1; i < len(bars); i++ {
		prevRes := resistance[i-1]
		if math.IsNaN(volSMA[i]) || vols[i] <= volSMA[i] {
			continue
		}
		switch {
		case !math.IsNaN(prevRes) && closes[i] > prevRes:
			sig[i] = Enter
		case !math.IsNaN(sma[i]) && closes[i] < sma[i]:
			sig[i] = Exit
		}
	}
	return Signals{Signal: sig, ATR: atr(bars)}
}

// DualMA enters on an RSI-confirmed golden cross and exits on any death cross.
func DualMA(bars []candle.Bar) Signals {
	d := indicators.DualMovingAverage(candle.Closes(bars), indicators.DUALMA_FAST, indicators.DUALMA_SLOW)
	sig := make([]int, len(bars))
	for i, a := range d.Crossovers {
		switch {
		case a == indicators.Buy && d.Confirmed(i):
			sig[i] = Enter
		case a == indicators.Sell:
			sig[i] = Exit
		}
	}
	return Signals{Signal: sig, ATR: atr(bars)}
}
