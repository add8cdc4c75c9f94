package stream

import (
	"sort"
	"sync"
	"time"
)

// Quote is a level-one record. Streaming updates usually carry only the
// fields that changed, the rest are zero.
type Quote struct {
	Symbol    string    `json:"symbol"`
	BidPrice  float64   `json:"bid_price,omitempty"`
	BidSize   float64   `json:"bid_size,omitempty"`
	AskPrice  float64   `json:"ask_price,omitempty"`
	AskSize   float64   `json:"ask_size,omitempty"`
	LastPrice float64   `json:"last_price,omitempty"`
	LastSize  float64   `json:"last_size,omitempty"`
	Volume    float64   `json:"volume,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Merge overlays the non-zero fields of u on q.
func (q Quote) Merge(u Quote) Quote {
	if u.Symbol != "" {
		q.Symbol = u.Symbol
	}
	setIf(&q.BidPrice, u.BidPrice)
	setIf(&q.BidSize, u.BidSize)
	setIf(&q.AskPrice, u.AskPrice)
	setIf(&q.AskSize, u.AskSize)
	setIf(&q.LastPrice, u.LastPrice)
	setIf(&q.LastSize, u.LastSize)
	setIf(&q.Volume, u.Volume)
	if !u.Timestamp.IsZero() {
		q.Timestamp = u.Timestamp
	}
	return q
}

func setIf(dst *float64, v float64) {
	if v != 0 {
		*dst = v
	}
}

func (q Quote) Spread() float64 {
	if q.BidPrice == 0 || q.AskPrice == 0 {
		return 0
	}
	return q.AskPrice - q.BidPrice
}

// QuoteBook keeps the latest merged record per symbol.
type QuoteBook struct {
	mu     sync.RWMutex
	quotes map[string]Quote
}

func NewQuoteBook() *QuoteBook {
	return &QuoteBook{quotes: make(map[string]Quote)}
}

// Update merges u into the stored record and returns the result. Updates
// without a symbol are ignored.
func (b *QuoteBook) Update(u Quote) Quote {
	if u.Symbol == "" {
		return u
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	merged := b.quotes[u.Symbol].Merge(u)
	b.quotes[u.Symbol] = merged
	return merged
}

func (b *QuoteBook) Get(symbol string) (Quote, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	q, ok := b.quotes[symbol]
	return q, ok
}

func (b *QuoteBook) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.quotes)
}

// Snapshot returns all records sorted by symbol.
func (b *QuoteBook) Snapshot() []Quote {
	b.mu.RLock()
	out := make([]Quote, 0, len(b.quotes))
	for _, q := range b.quotes {
		out = append(out, q)
	}
	b.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}
