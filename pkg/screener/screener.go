package screener

import (
	"errors"
	"sort"

	"marketlab/pkg/candle"
)

// Default criteria
const (
	MIN_GAP_PERCENT       = 3.0
	MIN_PRICE             = 5.0
	MAX_PRICE             = 500.0
	MIN_VOLUME_MULTIPLIER = 1.5
	MAX_RESULTS           = 30
	METRICS_WINDOW        = 21 // trading days used for ADR and dollar volume
)

var ErrInsufficientBars = errors.New("screener: need at least 21 days of bars")

// Gapper is one candidate that opened away from the prior close.
type Gapper struct {
	Symbol       string  `json:"symbol"`
	Name         string  `json:"name,omitempty"`
	Price        float64 `json:"current_price"`
	PrevClose    float64 `json:"previous_close"`
	GapPercent   float64 `json:"gap_percent"`
	Volume       float64 `json:"volume"`
	AvgVolume    float64 `json:"avg_volume"`
	VolumeRatio  float64 `json:"volume_ratio"`
	DollarVolume float64 `json:"avg_dollar_volume,omitempty"`
	ADR          float64 `json:"adr_percent,omitempty"`
}

type Criteria struct {
	MinGap         float64 `yaml:"min_gap" json:"min_gap_percent"`
	MinPrice       float64 `yaml:"min_price" json:"min_price"`
	MaxPrice       float64 `yaml:"max_price" json:"max_price"`
	MinVolumeRatio float64 `yaml:"min_volume_multiplier" json:"min_volume_multiplier"`
}

func DefaultCriteria() Criteria {
	return Criteria{
		MinGap:         MIN_GAP_PERCENT,
		MinPrice:       MIN_PRICE,
		MaxPrice:       MAX_PRICE,
		MinVolumeRatio: MIN_VOLUME_MULTIPLIER,
	}
}

// FromSnapshot computes the gap and the volume ratio. A zero average volume
// leaves the ratio at zero.
func FromSnapshot(symbol string, price, prevClose, volume, avgVolume float64) Gapper {
	g := Gapper{
		Symbol:    symbol,
		Price:     price,
		PrevClose: prevClose,
		Volume:    volume,
		AvgVolume: avgVolume,
	}
	if prevClose > 0 {
		g.GapPercent = (price - prevClose) / prevClose * 100
	}
	if avgVolume > 0 {
		g.VolumeRatio = volume / avgVolume
	}
	return g
}

// Pass reports whether g meets c. A zero volume ratio means no average
// volume was available and is let through.
func (c Criteria) Pass(g Gapper) bool {
	return g.GapPercent >= c.MinGap &&
		g.Price >= c.MinPrice && g.Price <= c.MaxPrice &&
		(g.VolumeRatio >= c.MinVolumeRatio || g.VolumeRatio == 0)
}

func Filter(gappers []Gapper, c Criteria) []Gapper {
	var out []Gapper
	for _, g := range gappers {
		if c.Pass(g) {
			out = append(out, g)
		}
	}
	return out
}

// Dedupe keeps the first occurrence of each symbol.
func Dedupe(gappers []Gapper) []Gapper {
	seen := make(map[string]bool, len(gappers))
	var out []Gapper
	for _, g := range gappers {
		if g.Symbol == "" || seen[g.Symbol] {
			continue
		}
		seen[g.Symbol] = true
		out = append(out, g)
	}
	return out
}

// Rank sorts by gap percent, largest first.
func Rank(gappers []Gapper) {
	sort.SliceStable(gappers, func(i, j int) bool {
		return gappers[i].GapPercent > gappers[j].GapPercent
	})
}

func Top(gappers []Gapper, n int) []Gapper {
	if n <= 0 || n >= len(gappers) {
		return gappers
	}
	return gappers[:n]
}

// AverageGap of a result set, 0 when empty.
func AverageGap(gappers []Gapper) float64 {
	if len(gappers) == 0 {
		return 0
	}
	sum := 0.0
	for _, g := range gappers {
		sum += g.GapPercent
	}
	return sum / float64(len(gappers))
}

// HistoricalMetrics averages dollar volume and daily range percent over the
// last 21 bars, skipping bars with missing prices or volume.
func HistoricalMetrics(bars []candle.Bar) (avgDolVol, avgADR float64, err error) {
	if len(bars) < METRICS_WINDOW {
		return 0, 0, ErrInsufficientBars
	}

	var dolVolSum, adrSum float64
	validDays := 0
	for _, bar := range bars[len(bars)-METRICS_WINDOW:] {
		if bar.Close <= 0 || bar.Volume <= 0 || bar.High <= 0 || bar.Low <= 0 {
			continue
		}
		dolVolSum += bar.Volume * bar.Close
		adrSum += (bar.High - bar.Low) / bar.Low * 100
		validDays++
	}
	if validDays == 0 {
		return 0, 0, errors.New("screener: no valid bars in window")
	}
	return dolVolSum / float64(validDays), adrSum / float64(validDays), nil
}

// AverageVolume over the last n historical bars. When excludeLast is set the
// final bar is the session being screened and is left out of the average.
func AverageVolume(bars []candle.Bar, n int, excludeLast bool) float64 {
	hist := bars
	if excludeLast && len(hist) > 0 {
		hist = hist[:len(hist)-1]
	}
	if len(hist) == 0 {
		return 0
	}
	if n > 0 && n < len(hist) {
		hist = hist[len(hist)-n:]
	}
	sum := 0.0
	for _, b := range hist {
		sum += b.Volume
	}
	return sum / float64(len(hist))
}
