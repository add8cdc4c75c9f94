package alpacadata

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"go.uber.org/zap"

	"marketlab/pkg/candle"
	"marketlab/pkg/portfolio"
)

func toBar(b marketdata.Bar) candle.Bar {
	return candle.Bar{
		Time:   b.Timestamp,
		Open:   b.Open,
		High:   b.High,
		Low:    b.Low,
		Close:  b.Close,
		Volume: float64(b.Volume),
	}
}

func (c *Client) barsRequest(start, end time.Time) marketdata.GetBarsRequest {
	// End is exclusive for daily bars.
	return marketdata.GetBarsRequest{
		TimeFrame:  marketdata.OneDay,
		Adjustment: marketdata.All,
		Start:      start,
		End:        end.AddDate(0, 0, 1),
		Feed:       c.feed(),
	}
}

// DailyBars returns split and dividend adjusted daily bars, oldest first.
func (c *Client) DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]candle.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := c.Market.GetBars(symbol, c.barsRequest(start, end))
	if err != nil {
		return nil, fmt.Errorf("GetBars %s: %w", symbol, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}
	bars := make([]candle.Bar, 0, len(raw))
	for _, b := range raw {
		bar := toBar(b)
		if !candle.Valid(bar) {
			c.Logger.Warn("dropping invalid bar",
				zap.String("symbol", symbol),
				zap.Time("time", bar.Time))
			continue
		}
		bars = append(bars, bar)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}
	candle.SortByTime(bars)
	return bars, nil
}

// CloseTable fetches daily closes for symbols and keeps only the dates every
// returned symbol traded. Symbols without bars are logged and left out.
func (c *Client) CloseTable(ctx context.Context, symbols []string, start, end time.Time) (portfolio.PriceTable, error) {
	symbols = normalizeSymbols(symbols)
	closes := make(map[string]map[time.Time]float64, len(symbols))
	for _, batch := range batches(symbols, BATCH_SIZE) {
		if err := ctx.Err(); err != nil {
			return portfolio.PriceTable{}, err
		}
		multi, err := c.Market.GetMultiBars(batch, c.barsRequest(start, end))
		if err != nil {
			return portfolio.PriceTable{}, fmt.Errorf("GetMultiBars: %w", err)
		}
		for symbol, bars := range multi {
			if len(bars) == 0 {
				continue
			}
			byDate := make(map[time.Time]float64, len(bars))
			for _, b := range bars {
				byDate[TradingDate(b.Timestamp)] = b.Close
			}
			closes[strings.ToUpper(symbol)] = byDate
		}
	}

	for _, s := range symbols {
		if _, ok := closes[s]; !ok {
			c.Logger.Warn("no bars returned, skipping", zap.String("symbol", s))
		}
	}
	if len(closes) == 0 {
		return portfolio.PriceTable{}, ErrNoData
	}

	var dates []time.Time
	for d := range firstOf(closes) {
		shared := true
		for _, byDate := range closes {
			if _, ok := byDate[d]; !ok {
				shared = false
				break
			}
		}
		if shared {
			dates = append(dates, d)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	table := portfolio.PriceTable{
		Dates:  dates,
		Closes: make(map[string][]float64, len(closes)),
	}
	for symbol, byDate := range closes {
		col := make([]float64, len(dates))
		for i, d := range dates {
			col[i] = byDate[d]
		}
		table.Closes[symbol] = col
	}
	c.Logger.Debug("close table built",
		zap.Int("symbols", len(table.Closes)),
		zap.Int("dates", len(dates)))
	return table, nil
}

func normalizeSymbols(symbols []string) []string {
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func firstOf(m map[string]map[time.Time]float64) map[time.Time]float64 {
	for _, v := range m {
		return v
	}
	return nil
}

// Snapshot is the latest price and the two most recent daily bars' data.
type Snapshot struct {
	Symbol    string
	Price     float64
	PrevClose float64
	Volume    float64
}

// Snapshots returns one entry per symbol that has a latest trade and a
// previous daily bar, sorted by symbol.
func (c *Client) Snapshots(ctx context.Context, symbols []string) ([]Snapshot, error) {
	var out []Snapshot
	for _, batch := range batches(symbols, BATCH_SIZE) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		snaps, err := c.Market.GetSnapshots(batch, marketdata.GetSnapshotRequest{Feed: c.feed()})
		if err != nil {
			return nil, fmt.Errorf("GetSnapshots: %w", err)
		}
		for symbol, s := range snaps {
			if s == nil || s.LatestTrade == nil || s.PrevDailyBar == nil {
				continue
			}
			snap := Snapshot{
				Symbol:    strings.ToUpper(symbol),
				Price:     s.LatestTrade.Price,
				PrevClose: s.PrevDailyBar.Close,
			}
			if s.DailyBar != nil {
				snap.Volume = float64(s.DailyBar.Volume)
			}
			out = append(out, snap)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

type Trade struct {
	Time  time.Time `json:"time"`
	Price float64   `json:"price"`
	Size  float64   `json:"size"`
}

// SessionTrades returns the regular-session trades for symbol on day.
func (c *Client) SessionTrades(ctx context.Context, symbol string, day time.Time) ([]Trade, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start, end := SessionWindow(day)
	raw, err := c.Market.GetTrades(symbol, marketdata.GetTradesRequest{
		Start: start,
		End:   end,
		Feed:  c.feed(),
	})
	if err != nil {
		return nil, fmt.Errorf("GetTrades %s: %w", symbol, err)
	}
	trades := make([]Trade, 0, len(raw))
	for _, t := range raw {
		trades = append(trades, Trade{Time: t.Timestamp, Price: t.Price, Size: float64(t.Size)})
	}
	return trades, nil
}

// LatestPrice is the price of the most recent trade.
func (c *Client) LatestPrice(ctx context.Context, symbol string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	trade, err := c.Market.GetLatestTrade(symbol, marketdata.GetLatestTradeRequest{Feed: c.feed()})
	if err != nil {
		return 0, fmt.Errorf("failed to get latest trade: %w", err)
	}
	if trade == nil {
		return 0, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}
	return trade.Price, nil
}

// AggregateTrades buckets trades into OHLCV bars of the given interval.
func AggregateTrades(trades []Trade, interval time.Duration) []candle.Bar {
	if interval <= 0 {
		interval = time.Minute
	}
	var bars []candle.Bar
	for _, t := range trades {
		bucket := t.Time.Truncate(interval)
		if n := len(bars); n > 0 && bars[n-1].Time.Equal(bucket) {
			b := &bars[n-1]
			b.High = max(b.High, t.Price)
			b.Low = min(b.Low, t.Price)
			b.Close = t.Price
			b.Volume += t.Size
			continue
		}
		bars = append(bars, candle.Bar{
			Time:   bucket,
			Open:   t.Price,
			High:   t.Price,
			Low:    t.Price,
			Close:  t.Price,
			Volume: t.Size,
		})
	}
	return bars
}
