package backtest

import (
	"math"
	"testing"
	"time"

	"marketlab/pkg/candle"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func closes(cs ...float64) []candle.Bar {
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	out := make([]candle.Bar, len(cs))
	for i, c := range cs {
		out[i] = candle.Bar{Time: base.AddDate(0, 0, i), Open: c, High: c * 1.01, Low: c * 0.99, Close: c, Volume: 1000}
	}
	return out
}

func TestEvents(t *testing.T) {
	got := Events([]int{0, 1, 1, 0, 1, -1, -1, 1})
	want := []int{0, 1, 0, 0, 1, -1, 0, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Events[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestEvents_TransitionsOnly(t *testing.T) {
	tests := []struct {
		name   string
		signal []int
		want   []int
	}{
		{"leaving oversold is not a sell", []int{0, 1, 1, 0, 0}, []int{0, 1, 0, 0, 0}},
		{"one bar buy is not followed by a sell", []int{0, 1, 0, 0}, []int{0, 1, 0, 0}},
		{"one bar sell is not followed by a buy", []int{0, -1, 0, 0}, []int{0, -1, 0, 0}},
		{"direct flip both ways", []int{-1, 1, -1}, []int{-1, 1, -1}},
		{"signal on the first bar", []int{1, 1}, []int{1, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Events(tt.signal)
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("Events(%v)[%d] = %d, want %d", tt.signal, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSimple(t *testing.T) {
	tests := []struct {
		name       string
		bars       []candle.Bar
		events     []int
		tp, sl     float64
		final      float64
		wins, loss int
		tpExits    int
		slExits    int
	}{
		{"signal exit", closes(10, 10, 11, 9, 12), []int{0, 1, 0, 0, -1}, 0.5, 0.5, 12000, 1, 0, 0, 0},
		{"take profit", closes(10, 10.6), []int{1, 0}, 0.05, 0.06, 10600, 1, 0, 1, 0},
		{"stop loss", closes(10, 9.3), []int{1, 0}, 0.05, 0.06, 9300, 0, 1, 0, 1},
		{"closed at end", closes(10, 9.8), []int{1, 0}, 0.05, 0.06, 9800, 0, 1, 0, 0},
		{"no signal", closes(10, 11), []int{0, 0}, 0.05, 0.06, 10000, 0, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Simple(tt.bars, tt.events, tt.tp, tt.sl, DEFAULT_CAPITAL)
			if !approx(r.FinalCapital, tt.final) {
				t.Errorf("FinalCapital = %v, want %v", r.FinalCapital, tt.final)
			}
			if r.Wins != tt.wins || r.Losses != tt.loss {
				t.Errorf("wins/losses = %d/%d, want %d/%d", r.Wins, r.Losses, tt.wins, tt.loss)
			}
			if r.TakeProfitExits != tt.tpExits || r.StopLossExits != tt.slExits {
				t.Errorf("exits tp/sl = %d/%d, want %d/%d", r.TakeProfitExits, r.StopLossExits, tt.tpExits, tt.slExits)
			}
			if r.Trades != r.Wins+r.Losses {
				t.Errorf("Trades = %d, want wins+losses", r.Trades)
			}
		})
	}
}

func TestSimple_ReturnAndWinRate(t *testing.T) {
	r := Simple(closes(10, 10, 12), []int{0, 1, -1}, 0.5, 0.5, 1000)
	if !approx(r.ReturnPct, 20) || r.WinRate != 100 {
		t.Errorf("ReturnPct/WinRate = %v/%v, want 20/100", r.ReturnPct, r.WinRate)
	}
}

func TestTrailingStop(t *testing.T) {
	flat := []float64{0.5, 0.5, 0.5, 0.5}

	t.Run("long stopped out", func(t *testing.T) {
		r := TrailingStop(closes(10, 12, 11.9, 10), flat, []int{1, 0, 0, 0}, 2, DEFAULT_CAPITAL)
		if !approx(r.FinalCapital, 10000) || r.Losses != 1 || r.StopLossExits != 1 {
			t.Errorf("result = %+v", r)
		}
	})

	t.Run("short profits on fall", func(t *testing.T) {
		r := TrailingStop(closes(10, 8, 8.5, 9.5), flat, []int{-1, 0, 0, 0}, 2, DEFAULT_CAPITAL)
		if !approx(r.FinalCapital, 10500) || r.Wins != 1 {
			t.Errorf("result = %+v, want 10500 and a win", r)
		}
	})

	t.Run("undefined atr falls back to percent of price", func(t *testing.T) {
		r := TrailingStop(closes(10, 12, 11.4), nil, []int{1, 0, 0}, 2, DEFAULT_CAPITAL)
		if !approx(r.FinalCapital, 11400) || r.StopLossExits != 1 {
			t.Errorf("result = %+v, want stop at 11.4", r)
		}
	})

	t.Run("open position closed at end", func(t *testing.T) {
		r := TrailingStop(closes(10, 10.5), flat, []int{1, 0}, 2, DEFAULT_CAPITAL)
		if r.Trades != 1 || r.StopLossExits != 0 || !approx(r.FinalCapital, 10500) {
			t.Errorf("result = %+v", r)
		}
	})
}

func TestLookup(t *testing.T) {
	if _, err := Lookup("martingale"); err == nil {
		t.Error("unknown strategy should fail")
	}
	if got := Names(); len(got) != 6 || got[0] != "breakout" {
		t.Errorf("Names = %v", got)
	}
}

func TestStrategies_Shape(t *testing.T) {
	cs := make([]float64, 120)
	for i := range cs {
		cs[i] = 100 + 10*math.Sin(float64(i)/8)
	}
	bars := closes(cs...)
	for _, name := range Names() {
		s, err := Lookup(name)
		if err != nil {
			t.Fatal(err)
		}
		sig := s(bars)
		if len(sig.Signal) != len(bars) || len(sig.ATR) != len(bars) {
			t.Errorf("%s: lengths %d/%d, want %d", name, len(sig.Signal), len(sig.ATR), len(bars))
		}
		for i, v := range sig.Events() {
			if v < Exit || v > Enter {
				t.Errorf("%s: event[%d] = %d", name, i, v)
			}
		}
	}
}

func TestMACD_TradesOscillation(t *testing.T) {
	cs := make([]float64, 120)
	for i := range cs {
		cs[i] = 100 + 10*math.Sin(float64(i)/8)
	}
	bars := closes(cs...)
	r := Simple(bars, MACD(bars).Events(), 1, 1, DEFAULT_CAPITAL)
	if r.Trades == 0 {
		t.Error("oscillating prices should produce MACD trades")
	}
}
