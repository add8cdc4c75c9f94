package screener

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"marketlab/pkg/candle"
)

func TestFromSnapshot(t *testing.T) {
	g := FromSnapshot("ABC", 10.5, 10, 3000, 1000)
	if math.Abs(g.GapPercent-5) > 1e-9 {
		t.Errorf("GapPercent = %v, want 5", g.GapPercent)
	}
	if g.VolumeRatio != 3 {
		t.Errorf("VolumeRatio = %v, want 3", g.VolumeRatio)
	}
	if g := FromSnapshot("ABC", 10, 0, 100, 0); g.GapPercent != 0 || g.VolumeRatio != 0 {
		t.Errorf("zero denominators = %+v, want zero gap and ratio", g)
	}
}

func TestCriteria_Pass(t *testing.T) {
	c := DefaultCriteria()
	tests := []struct {
		name string
		g    Gapper
		want bool
	}{
		{"passes", Gapper{GapPercent: 4, Price: 20, VolumeRatio: 2}, true},
		{"gap at threshold", Gapper{GapPercent: 3, Price: 20, VolumeRatio: 2}, true},
		{"gap too small", Gapper{GapPercent: 2.9, Price: 20, VolumeRatio: 2}, false},
		{"too cheap", Gapper{GapPercent: 4, Price: 4.99, VolumeRatio: 2}, false},
		{"too expensive", Gapper{GapPercent: 4, Price: 500.01, VolumeRatio: 2}, false},
		{"price bounds inclusive", Gapper{GapPercent: 4, Price: 500, VolumeRatio: 2}, true},
		{"thin volume", Gapper{GapPercent: 4, Price: 20, VolumeRatio: 1.2}, false},
		{"no volume history", Gapper{GapPercent: 4, Price: 20, VolumeRatio: 0}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Pass(tt.g); got != tt.want {
				t.Errorf("Pass(%+v) = %v, want %v", tt.g, got, tt.want)
			}
		})
	}
}

func TestDedupeRankTop(t *testing.T) {
	in := []Gapper{
		{Symbol: "AAA", GapPercent: 4},
		{Symbol: "BBB", GapPercent: 9},
		{Symbol: "AAA", GapPercent: 12},
		{Symbol: "CCC", GapPercent: 6},
	}
	out := Dedupe(in)
	if len(out) != 3 || out[0].GapPercent != 4 {
		t.Fatalf("Dedupe = %+v, want first AAA kept", out)
	}
	Rank(out)
	if out[0].Symbol != "BBB" || out[2].Symbol != "AAA" {
		t.Errorf("Rank order = %v %v %v", out[0].Symbol, out[1].Symbol, out[2].Symbol)
	}
	if got := Top(out, 2); len(got) != 2 {
		t.Errorf("Top(2) len = %d", len(got))
	}
	if got := Top(out, 0); len(got) != 3 {
		t.Errorf("Top(0) should return all, got %d", len(got))
	}
	if avg := AverageGap(out); math.Abs(avg-19.0/3) > 1e-9 {
		t.Errorf("AverageGap = %v", avg)
	}
}

func TestHistoricalMetrics(t *testing.T) {
	bars := make([]candle.Bar, 25)
	for i := range bars {
		bars[i] = candle.Bar{High: 11, Low: 10, Close: 10.5, Volume: 1000}
	}
	bars[24].Volume = 0 // skipped

	dolVol, adr, err := HistoricalMetrics(bars)
	if err != nil {
		t.Fatalf("HistoricalMetrics() error = %v", err)
	}
	if dolVol != 10500 {
		t.Errorf("dollar volume = %v, want 10500", dolVol)
	}
	if math.Abs(adr-10) > 1e-9 {
		t.Errorf("ADR = %v, want 10", adr)
	}

	if _, _, err := HistoricalMetrics(bars[:5]); !errors.Is(err, ErrInsufficientBars) {
		t.Errorf("err = %v, want ErrInsufficientBars", err)
	}
}

func TestAverageVolume(t *testing.T) {
	bars := []candle.Bar{{Volume: 100}, {Volume: 200}, {Volume: 300}, {Volume: 5000}}
	tests := []struct {
		name        string
		bars        []candle.Bar
		n           int
		excludeLast bool
		want        float64
	}{
		{"current session excluded", bars, 2, true, 250},
		{"completed session included", bars, 2, false, 2650},
		{"window wider than history", bars, 10, true, 200},
		{"only the current session", bars[:1], 2, true, 0},
		{"single completed session", bars[:1], 2, false, 100},
		{"no bars", nil, 2, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AverageVolume(tt.bars, tt.n, tt.excludeLast); got != tt.want {
				t.Errorf("AverageVolume = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoadSymbolsCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "symbols.csv")
	data := "Symbol,Name\naapl,Apple\n,blank\n msft ,Microsoft\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := LoadSymbolsCSV(path)
	if err != nil {
		t.Fatalf("LoadSymbolsCSV() error = %v", err)
	}
	if len(got) != 2 || got[0] != "AAPL" || got[1] != "MSFT" {
		t.Errorf("symbols = %v, want [AAPL MSFT]", got)
	}
	if _, err := LoadSymbolsCSV(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("missing file should fail")
	}
}

func TestParseSymbols(t *testing.T) {
	got := ParseSymbols(" aapl, ,msft,")
	if len(got) != 2 || got[0] != "AAPL" || got[1] != "MSFT" {
		t.Errorf("ParseSymbols = %v", got)
	}
}
