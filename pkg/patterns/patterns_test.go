package patterns

import (
	"testing"
	"time"

	"marketlab/pkg/candle"
)

var day0 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func bars(ohlc ...[4]float64) []candle.Bar {
	out := make([]candle.Bar, len(ohlc))
	for i, v := range ohlc {
		out[i] = candle.Bar{
			Time:  day0.AddDate(0, 0, i),
			Open:  v[0],
			High:  v[1],
			Low:   v[2],
			Close: v[3],
		}
	}
	return out
}

func find(results []Result, name string) (Result, bool) {
	for _, r := range results {
		if r.Name == name {
			return r, true
		}
	}
	return Result{}, false
}

func TestDetect_SingleCandle(t *testing.T) {
	tests := []struct {
		name     string
		bar      [4]float64
		want     string
		signal   Signal
		strength float64
	}{
		{"doji", [4]float64{10, 11, 9, 10.05}, "Doji", Neutral, 70},
		{"dragonfly", [4]float64{10, 10, 8, 10}, "Dragonfly Doji", Bullish, 85},
		{"gravestone", [4]float64{10, 12, 10, 10}, "Gravestone Doji", Bearish, 85},
		{"hammer", [4]float64{9.6, 10, 8, 10}, "Hammer", Bullish, 80},
		{"hanging man", [4]float64{10, 10.05, 8, 9.6}, "Hanging Man", Bearish, 80},
		{"shooting star", [4]float64{10, 12, 9.58, 9.6}, "Shooting Star", Bearish, 85},
		{"long-legged doji", [4]float64{10, 16.4, 6.5, 10.2}, "Long-Legged Doji", Neutral, 75},
		{"inverted hammer", [4]float64{10, 12, 10, 10.4}, "Inverted Hammer", Bullish, 75},
		{"spinning top", [4]float64{10, 11, 9.4, 10.4}, "Spinning Top", Neutral, 70},
		{"white marubozu", [4]float64{10, 12, 10, 12}, "White Marubozu", Bullish, 90},
		{"black marubozu", [4]float64{12, 12, 10, 10}, "Black Marubozu", Bearish, 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := Detect(bars(tt.bar))
			r, ok := find(results, tt.want)
			if !ok {
				t.Fatalf("pattern %q not detected, got %+v", tt.want, results)
			}
			if r.Signal != tt.signal {
				t.Errorf("Signal = %v, want %v", r.Signal, tt.signal)
			}
			if r.Strength != tt.strength {
				t.Errorf("Strength = %v, want %v", r.Strength, tt.strength)
			}
			if r.Price != tt.bar[3] {
				t.Errorf("Price = %v, want close %v", r.Price, tt.bar[3])
			}
		})
	}
}

func TestDetect_BullishEngulfing(t *testing.T) {
	results := Detect(bars(
		[4]float64{10, 10.2, 8.8, 9},
		[4]float64{8.9, 10.6, 8.8, 10.5},
	))
	r, ok := find(results, "Bullish Engulfing")
	if !ok {
		t.Fatalf("engulfing not detected: %+v", results)
	}
	// body ratio 1.6 -> 80 + 0.6*20
	if diff := r.Strength - 92; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("Strength = %v, want 92", r.Strength)
	}
	if !r.Time.Equal(day0.AddDate(0, 0, 1)) {
		t.Errorf("Time = %v, want second bar", r.Time)
	}
}

func TestDetect_MultiCandle(t *testing.T) {
	tests := []struct {
		name     string
		bars     [][4]float64
		want     string
		signal   Signal
		strength float64
	}{
		{
			name:     "bearish engulfing",
			bars:     [][4]float64{{9, 10.1, 8.9, 10}, {10.2, 10.3, 8.7, 8.8}},
			want:     "Bearish Engulfing",
			signal:   Bearish,
			strength: 88, // body ratio 1.4
		},
		{
			name:     "bullish harami",
			bars:     [][4]float64{{10, 10.1, 7.9, 8}, {8.5, 9.6, 8.4, 9.5}},
			want:     "Bullish Harami",
			signal:   Bullish,
			strength: 75,
		},
		{
			name:     "bearish harami",
			bars:     [][4]float64{{8, 10.1, 7.9, 10}, {9.5, 9.6, 8.4, 8.5}},
			want:     "Bearish Harami",
			signal:   Bearish,
			strength: 75,
		},
		{
			name:     "harami cross after a down day",
			bars:     [][4]float64{{10, 10.1, 7.9, 8}, {9, 9.5, 8.5, 9}},
			want:     "Harami Cross",
			signal:   Bullish,
			strength: 80,
		},
		{
			name:     "harami cross after an up day",
			bars:     [][4]float64{{8, 10.1, 7.9, 10}, {9, 9.5, 8.5, 9}},
			want:     "Harami Cross",
			signal:   Bearish,
			strength: 80,
		},
		{
			name:     "piercing line",
			bars:     [][4]float64{{10, 10.1, 7.9, 8}, {7.8, 9.6, 7.7, 9.5}},
			want:     "Piercing Line",
			signal:   Bullish,
			strength: 85,
		},
		{
			name:     "dark cloud cover",
			bars:     [][4]float64{{8, 10.1, 7.9, 10}, {10.2, 10.3, 8.4, 8.5}},
			want:     "Dark Cloud Cover",
			signal:   Bearish,
			strength: 85,
		},
		{
			name:     "evening star",
			bars:     [][4]float64{{8, 10.1, 7.9, 10}, {10.2, 10.4, 10.1, 10.3}, {10.1, 10.2, 8.4, 8.5}},
			want:     "Evening Star",
			signal:   Bearish,
			strength: 90,
		},
		{
			name:     "three black crows",
			bars:     [][4]float64{{12, 12.1, 10.9, 11}, {11.5, 11.6, 10.3, 10.4}, {10.8, 10.9, 9.7, 9.8}},
			want:     "Three Black Crows",
			signal:   Bearish,
			strength: 95,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := bars(tt.bars...)
			results := Detect(in)
			r, ok := find(results, tt.want)
			if !ok {
				t.Fatalf("pattern %q not detected, got %+v", tt.want, results)
			}
			if r.Signal != tt.signal {
				t.Errorf("Signal = %v, want %v", r.Signal, tt.signal)
			}
			if diff := r.Strength - tt.strength; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("Strength = %v, want %v", r.Strength, tt.strength)
			}
			if last := in[len(in)-1].Time; !r.Time.Equal(last) {
				t.Errorf("Time = %v, want last bar %v", r.Time, last)
			}
		})
	}
}

func TestDetect_EngulfingStrengthCapped(t *testing.T) {
	results := Detect(bars(
		[4]float64{10, 10.1, 9.4, 9.5},
		[4]float64{9.4, 13.1, 9.3, 13},
	))
	r, ok := find(results, "Bullish Engulfing")
	if !ok {
		t.Fatal("engulfing not detected")
	}
	if r.Strength != 95 {
		t.Errorf("Strength = %v, want cap 95", r.Strength)
	}
}

func TestDetect_ThreeCandle(t *testing.T) {
	t.Run("morning star", func(t *testing.T) {
		results := Detect(bars(
			[4]float64{10, 10.1, 7.9, 8},
			[4]float64{7.8, 8, 7.7, 7.9},
			[4]float64{8, 9.6, 7.95, 9.5},
		))
		if _, ok := find(results, "Morning Star"); !ok {
			t.Errorf("morning star not detected: %+v", results)
		}
	})

	t.Run("three white soldiers", func(t *testing.T) {
		results := Detect(bars(
			[4]float64{10, 11.1, 9.9, 11},
			[4]float64{10.5, 11.7, 10.4, 11.6},
			[4]float64{11.2, 12.4, 11.1, 12.3},
		))
		r, ok := find(results, "Three White Soldiers")
		if !ok {
			t.Fatalf("soldiers not detected: %+v", results)
		}
		if r.Strength != 95 {
			t.Errorf("Strength = %v, want 95", r.Strength)
		}
	})
}

func TestDetect_NeedsHistoryForMultiCandle(t *testing.T) {
	results := Detect(bars([4]float64{8.9, 10.6, 8.8, 10.5}))
	for _, r := range results {
		if r.Name == "Bullish Engulfing" || r.Name == "Morning Star" {
			t.Errorf("multi-candle pattern %q on first bar", r.Name)
		}
	}
}

func TestDetect_Empty(t *testing.T) {
	if got := Detect(nil); len(got) != 0 {
		t.Errorf("Detect(nil) = %v, want empty", got)
	}
}

func TestSummarize(t *testing.T) {
	results := []Result{
		{Time: day0.AddDate(0, 0, 2), Name: "Hammer", Signal: Bullish, Strength: 80},
		{Time: day0, Name: "Doji", Signal: Neutral, Strength: 70},
		{Time: day0.AddDate(0, 0, 1), Name: "Hammer", Signal: Bullish, Strength: 90},
		{Time: day0.AddDate(0, 0, 3), Name: "Shooting Star", Signal: Bearish, Strength: 85},
	}
	s := Summarize(results)

	if s.Total != 4 {
		t.Errorf("Total = %d, want 4", s.Total)
	}
	if s.BySignal[Bullish] != 2 || s.ByPattern["Hammer"] != 2 {
		t.Errorf("counts = %v / %v", s.BySignal, s.ByPattern)
	}
	if s.AvgScore[Bullish] != 85 {
		t.Errorf("AvgScore[Bullish] = %v, want 85", s.AvgScore[Bullish])
	}
	if s.Dominant != Bullish {
		t.Errorf("Dominant = %v, want Bullish", s.Dominant)
	}
	if s.Rows[0].Name != "Doji" {
		t.Errorf("Rows not sorted by time: first = %q", s.Rows[0].Name)
	}
}

func TestFilterAndLatest(t *testing.T) {
	results := []Result{
		{Time: day0, Strength: 70},
		{Time: day0.AddDate(0, 0, 1), Strength: 90},
		{Time: day0.AddDate(0, 0, 2), Strength: 85},
	}
	if got := Filter(results, 80); len(got) != 2 {
		t.Errorf("Filter len = %d, want 2", len(got))
	}
	last := Latest(results, 1)
	if len(last) != 1 || !last[0].Time.Equal(day0.AddDate(0, 0, 2)) {
		t.Errorf("Latest = %+v", last)
	}
}
