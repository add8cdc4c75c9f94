package patterns

import (
	"sort"
	"time"

	"marketlab/pkg/candle"
)

type Signal string

const (
	Bullish Signal = "Bullish"
	Bearish Signal = "Bearish"
	Neutral Signal = "Neutral"
)

// Result is one detected pattern on one bar.
type Result struct {
	Time     time.Time `json:"time"`
	Name     string    `json:"name"`
	Signal   Signal    `json:"signal"`
	Strength float64   `json:"strength"` // 0-100 confidence
	Price    float64   `json:"price"`
}

// rule checks bar i (with history in ms) and reports a match.
type rule struct {
	family  string
	minBars int
	check   func(ms []candle.Metrics, i int) (string, Signal, float64, bool)
}

// Rules are evaluated per bar in this order. Within a family only the first
// matching branch is reported, so the families behave like the if/elif
// chains traders write by hand.
var rules = []rule{
	{family: "doji", minBars: 1, check: dojiFamily},
	{family: "hammer", minBars: 1, check: hammerFamily},
	{family: "star", minBars: 1, check: spinningFamily},
	{family: "marubozu", minBars: 1, check: marubozuFamily},
	{family: "engulfing", minBars: 2, check: engulfingFamily},
	{family: "harami", minBars: 2, check: haramiFamily},
	{family: "piercing", minBars: 2, check: piercingFamily},
	{family: "three", minBars: 3, check: threeCandleFamily},
}

// Detect classifies every bar and returns the matches in bar order.
func Detect(bars []candle.Bar) []Result {
	return DetectMetrics(candle.Compute(bars))
}

// DetectMetrics runs the rules table over precomputed metrics.
func DetectMetrics(ms []candle.Metrics) []Result {
	var results []Result
	for i := range ms {
		for _, r := range rules {
			if i+1 < r.minBars {
				continue
			}
			name, sig, strength, ok := r.check(ms, i)
			if !ok {
				continue
			}
			results = append(results, Result{
				Time:     ms[i].Time,
				Name:     name,
				Signal:   sig,
				Strength: strength,
				Price:    ms[i].Close,
			})
		}
	}
	return results
}

func dojiFamily(ms []candle.Metrics, i int) (string, Signal, float64, bool) {
	m := ms[i]
	if !m.IsDoji {
		return "", "", 0, false
	}
	switch {
	case m.UpperWickRatio < 0.6 && m.LowerWickRatio < 0.6:
		return "Doji", Neutral, 70, true
	case m.LowerWickRatio > 0.6 && m.UpperWickRatio < 0.1:
		return "Dragonfly Doji", Bullish, 85, true
	case m.UpperWickRatio > 0.6 && m.LowerWickRatio < 0.1:
		return "Gravestone Doji", Bearish, 85, true
	case m.UpperWickRatio > 0.3 && m.LowerWickRatio > 0.3:
		return "Long-Legged Doji", Neutral, 75, true
	}
	return "", "", 0, false
}

func hammerFamily(ms []candle.Metrics, i int) (string, Signal, float64, bool) {
	m := ms[i]
	switch {
	case m.LowerWickRatio > 0.5 && m.BodyRatio < 0.3 && m.UpperWickRatio < 0.1:
		if m.IsBullish || m.IsDoji {
			return "Hammer", Bullish, 80, true
		}
		return "Hanging Man", Bearish, 80, true
	case m.UpperWickRatio > 0.5 && m.BodyRatio < 0.3 && m.LowerWickRatio < 0.1:
		if m.IsBullish || m.IsDoji {
			return "Inverted Hammer", Bullish, 75, true
		}
		return "Shooting Star", Bearish, 85, true
	}
	return "", "", 0, false
}

func spinningFamily(ms []candle.Metrics, i int) (string, Signal, float64, bool) {
	m := ms[i]
	switch {
	case m.BodyRatio < 0.3 && m.UpperWickRatio > 0.2 && m.LowerWickRatio > 0.2:
		return "Spinning Top", Neutral, 70, true
	case m.UpperWickRatio > 0.4 && m.LowerWickRatio > 0.4 && m.BodyRatio < 0.2:
		return "High Wave", Neutral, 75, true
	}
	return "", "", 0, false
}

func marubozuFamily(ms []candle.Metrics, i int) (string, Signal, float64, bool) {
	m := ms[i]
	if m.BodyRatio > 0.8 && m.UpperWickRatio < 0.1 && m.LowerWickRatio < 0.1 {
		if m.IsBullish {
			return "White Marubozu", Bullish, 90, true
		}
		return "Black Marubozu", Bearish, 90, true
	}
	return "", "", 0, false
}

func engulfingFamily(ms []candle.Metrics, i int) (string, Signal, float64, bool) {
	prev, curr := ms[i-1], ms[i]
	switch {
	case prev.IsBearish && curr.IsBullish && curr.Open < prev.Close && curr.Close > prev.Open:
		return "Bullish Engulfing", Bullish, engulfStrength(prev, curr), true
	case prev.IsBullish && curr.IsBearish && curr.Open > prev.Close && curr.Close < prev.Open:
		return "Bearish Engulfing", Bearish, engulfStrength(prev, curr), true
	}
	return "", "", 0, false
}

// engulfStrength grows with how much larger the engulfing body is, capped at 95.
func engulfStrength(prev, curr candle.Metrics) float64 {
	if prev.BodySize == 0 {
		return 95
	}
	return min(95, 80+(curr.BodySize/prev.BodySize-1)*20)
}

func haramiFamily(ms []candle.Metrics, i int) (string, Signal, float64, bool) {
	prev, curr := ms[i-1], ms[i]
	if !(curr.BodyTop < prev.BodyTop && curr.BodyBottom > prev.BodyBottom) {
		return "", "", 0, false
	}
	switch {
	case prev.IsBearish && curr.IsBullish:
		return "Bullish Harami", Bullish, 75, true
	case prev.IsBullish && curr.IsBearish:
		return "Bearish Harami", Bearish, 75, true
	case curr.IsDoji:
		if prev.IsBearish {
			return "Harami Cross", Bullish, 80, true
		}
		return "Harami Cross", Bearish, 80, true
	}
	return "", "", 0, false
}

func piercingFamily(ms []candle.Metrics, i int) (string, Signal, float64, bool) {
	prev, curr := ms[i-1], ms[i]
	mid := (prev.Open + prev.Close) / 2
	switch {
	case prev.IsBearish && curr.IsBullish && curr.Open < prev.Low && curr.Close > mid && curr.Close < prev.Open:
		return "Piercing Line", Bullish, 85, true
	case prev.IsBullish && curr.IsBearish && curr.Open > prev.High && curr.Close < mid && curr.Close > prev.Open:
		return "Dark Cloud Cover", Bearish, 85, true
	}
	return "", "", 0, false
}

func threeCandleFamily(ms []candle.Metrics, i int) (string, Signal, float64, bool) {
	first, second, third := ms[i-2], ms[i-1], ms[i]
	firstMid := (first.Open + first.Close) / 2

	switch {
	case first.IsBearish && second.BodySize < first.BodySize*0.5 &&
		third.IsBullish && third.Close > firstMid:
		return "Morning Star", Bullish, 90, true

	case first.IsBullish && second.BodySize < first.BodySize*0.5 &&
		third.IsBearish && third.Close < firstMid:
		return "Evening Star", Bearish, 90, true

	case first.IsBullish && second.IsBullish && third.IsBullish &&
		second.Close > first.Close && third.Close > second.Close &&
		opensInsideBody(second.Open, first) && opensInsideBody(third.Open, second):
		return "Three White Soldiers", Bullish, 95, true

	case first.IsBearish && second.IsBearish && third.IsBearish &&
		second.Close < first.Close && third.Close < second.Close &&
		opensInsideBody(second.Open, first) && opensInsideBody(third.Open, second):
		return "Three Black Crows", Bearish, 95, true
	}
	return "", "", 0, false
}

func opensInsideBody(open float64, m candle.Metrics) bool {
	return open > m.BodyBottom && open < m.BodyTop
}

// Filter keeps results at or above minStrength.
func Filter(results []Result, minStrength float64) []Result {
	var out []Result
	for _, r := range results {
		if r.Strength >= minStrength {
			out = append(out, r)
		}
	}
	return out
}

// Latest returns the last n results by time.
func Latest(results []Result, n int) []Result {
	sorted := append([]Result(nil), results...)
	sortByTime(sorted)
	if n <= 0 || n >= len(sorted) {
		return sorted
	}
	return sorted[len(sorted)-n:]
}

// Summary aggregates a detection run.
type Summary struct {
	Total     int                `json:"total"`
	BySignal  map[Signal]int     `json:"by_signal"`
	ByPattern map[string]int     `json:"by_pattern"`
	Rows      []Result           `json:"rows"`
	Dominant  Signal             `json:"dominant"`
	AvgScore  map[Signal]float64 `json:"avg_strength"`
}

func Summarize(results []Result) Summary {
	s := Summary{
		Total:     len(results),
		BySignal:  make(map[Signal]int),
		ByPattern: make(map[string]int),
		AvgScore:  make(map[Signal]float64),
		Rows:      append([]Result(nil), results...),
		Dominant:  Neutral,
	}
	sortByTime(s.Rows)

	sums := make(map[Signal]float64)
	for _, r := range results {
		s.BySignal[r.Signal]++
		s.ByPattern[r.Name]++
		sums[r.Signal] += r.Strength
	}
	for sig, n := range s.BySignal {
		s.AvgScore[sig] = sums[sig] / float64(n)
	}

	if s.BySignal[Bullish] > s.BySignal[Bearish] {
		s.Dominant = Bullish
	} else if s.BySignal[Bearish] > s.BySignal[Bullish] {
		s.Dominant = Bearish
	}
	return s
}

func sortByTime(rs []Result) {
	sort.SliceStable(rs, func(i, j int) bool {
		return rs[i].Time.Before(rs[j].Time)
	})
}
