package backtest

import (
	"math"

	"marketlab/pkg/candle"
)

const (
	DEFAULT_TAKE_PROFIT = 0.05
	DEFAULT_STOP_LOSS   = 0.06
	DEFAULT_CAPITAL     = 10000.0
	DEFAULT_TSL_FACTOR  = 2.0

	// used when ATR is undefined on a bar
	ATR_FALLBACK_PCT = 0.02
)

// Position events: Enter on a new buy signal, Exit on a new sell signal.
const (
	Exit  = -1
	None  = 0
	Enter = 1
)

// Result summarises one run over one symbol.
type Result struct {
	Symbol          string  `json:"symbol"`
	Strategy        string  `json:"strategy"`
	Mode            string  `json:"mode"`
	InitialCapital  float64 `json:"initial_capital"`
	FinalCapital    float64 `json:"final_capital"`
	Trades          int     `json:"trades"`
	Wins            int     `json:"wins"`
	Losses          int     `json:"losses"`
	WinRate         float64 `json:"win_rate"`
	TakeProfitExits int     `json:"take_profit_exits"`
	StopLossExits   int     `json:"stop_loss_exits"`
	ReturnPct       float64 `json:"return_pct"`
}

func (r *Result) finish() {
	if r.Trades > 0 {
		r.WinRate = float64(r.Wins) / float64(r.Trades) * 100
	}
	if r.InitialCapital > 0 {
		r.ReturnPct = (r.FinalCapital - r.InitialCapital) / r.InitialCapital * 100
	}
}

// Events turns a signal column (+1 long, -1 short/flat, 0 none) into entry
// and exit events, firing only when the signal changes into that state.
func Events(signal []int) []int {
	out := make([]int, len(signal))
	prev := None
	for i, s := range signal {
		switch {
		case s == Enter && prev != Enter:
			out[i] = Enter
		case s == Exit && prev != Exit:
			out[i] = Exit
		}
		prev = s
	}
	return out
}

// Simple goes all-in on Enter and leaves on Exit, take-profit or stop-loss.
// Any open position is closed at the last close.
func Simple(bars []candle.Bar, events []int, takeProfit, stopLoss, capital float64) Result {
	res := Result{Mode: "simple", InitialCapital: capital}
	shares, entry := 0.0, 0.0

	for i, b := range bars {
		price := b.Close
		ev := None
		if i < len(events) {
			ev = events[i]
		}

		switch {
		case ev == Enter && capital > 0 && shares == 0:
			shares = capital / price
			capital = 0
			entry = price

		case ev == Exit && shares > 0:
			capital = shares * price
			shares = 0
			res.Trades++
			if price > entry {
				res.Wins++
			} else {
				res.Losses++
			}

		case shares > 0:
			if price >= entry*(1+takeProfit) {
				capital = shares * price
				shares = 0
				res.Trades++
				res.Wins++
				res.TakeProfitExits++
			} else if price <= entry*(1-stopLoss) {
				capital = shares * price
				shares = 0
				res.Trades++
				res.Losses++
				res.StopLossExits++
			}
		}
	}

	if shares > 0 && len(bars) > 0 {
		last := bars[len(bars)-1].Close
		capital = shares * last
		res.Trades++
		if last > entry {
			res.Wins++
		} else {
			res.Losses++
		}
	}

	res.FinalCapital = capital
	res.finish()
	return res
}

// TrailingStop enters long on Enter and short on Exit while flat, then
// trails a stop factor*ATR behind the best price since entry.
func TrailingStop(bars []candle.Bar, atr []float64, events []int, factor, capital float64) Result {
	res := Result{Mode: "trailing_stop", InitialCapital: capital}

	var (
		shares, entry float64
		side          int // Enter long, Exit short, None flat
		best          float64
	)

	// a short is marked to market as entry value plus the fall in price
	value := func(price float64) float64 {
		if side == Exit {
			return shares * (2*entry - price)
		}
		return shares * price
	}
	closeOut := func(price float64) {
		won := (side == Enter && price > entry) || (side == Exit && price < entry)
		capital = value(price)
		shares = 0
		side = None
		res.Trades++
		if won {
			res.Wins++
		} else {
			res.Losses++
		}
	}

	for i, b := range bars {
		price := b.Close
		a := math.NaN()
		if i < len(atr) {
			a = atr[i]
		}
		if math.IsNaN(a) || a == 0 {
			a = price * ATR_FALLBACK_PCT
		}
		ev := None
		if i < len(events) {
			ev = events[i]
		}

		if side == None {
			if (ev == Enter || ev == Exit) && capital > 0 {
				shares = capital / price
				capital = 0
				entry = price
				best = price
				side = ev
			}
			continue
		}

		if side == Enter {
			best = math.Max(best, price)
			if price < best-a*factor {
				closeOut(price)
				res.StopLossExits++
			}
		} else {
			best = math.Min(best, price)
			if price > best+a*factor {
				closeOut(price)
				res.StopLossExits++
			}
		}
	}

	if side != None && len(bars) > 0 {
		closeOut(bars[len(bars)-1].Close)
	}

	res.FinalCapital = capital
	res.finish()
	return res
}
