package alpacadata

import (
	"context"
	"fmt"

	mdstream "github.com/alpacahq/alpaca-trade-api-go/v3/marketdata/stream"
	"go.uber.org/zap"

	"marketlab/pkg/stream"
)

func fromStreamQuote(q mdstream.Quote) stream.Quote {
	return stream.Quote{
		Symbol:    q.Symbol,
		BidPrice:  q.BidPrice,
		BidSize:   float64(q.BidSize),
		AskPrice:  q.AskPrice,
		AskSize:   float64(q.AskSize),
		Timestamp: q.Timestamp,
	}
}

func fromStreamTrade(t mdstream.Trade) stream.Quote {
	return stream.Quote{
		Symbol:    t.Symbol,
		LastPrice: t.Price,
		LastSize:  float64(t.Size),
		Timestamp: t.Timestamp,
	}
}

// QuoteStream subscribes to quotes and trades for symbols and pushes each
// update onto queue. It blocks until ctx is cancelled or the connection
// terminates, then closes queue.
func (c *Client) QuoteStream(ctx context.Context, symbols []string, queue *stream.Queue[stream.Quote]) error {
	defer queue.Close()

	sc := mdstream.NewStocksClient(c.feed(),
		mdstream.WithCredentials(c.Config.APIKey, c.Config.APISecret),
		mdstream.WithQuotes(func(q mdstream.Quote) {
			queue.Push(fromStreamQuote(q))
		}, symbols...),
		mdstream.WithTrades(func(t mdstream.Trade) {
			queue.Push(fromStreamTrade(t))
		}, symbols...),
	)
	if err := sc.Connect(ctx); err != nil {
		return fmt.Errorf("connecting quote stream: %w", err)
	}
	c.Logger.Info("quote stream connected",
		zap.Strings("symbols", symbols),
		zap.String("feed", c.Config.Feed))

	select {
	case <-ctx.Done():
		return nil
	case err := <-sc.Terminated():
		if err != nil {
			return fmt.Errorf("quote stream terminated: %w", err)
		}
		return nil
	}
}
