package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"marketlab/pkg/cli"
	"marketlab/pkg/screener"
	"marketlab/pkg/stream"
)

func main() {
	configPath := flag.String("config", "", "path to marketlab.yaml")
	debug := flag.Bool("debug", false, "enable debug logging")
	symbolsFlag := flag.String("symbols", "", "comma separated symbols (default from config)")
	queueSize := flag.Int("queue-size", -1, "max queued updates before the oldest is dropped, 0 for unbounded")
	every := flag.Duration("print-every", 5*time.Second, "how often to print the quote book")
	save := flag.Bool("save", false, "save the final quote book as JSON")
	flag.Parse()

	app, err := cli.Start("stream", *configPath, *debug)
	if err != nil {
		os.Exit(1)
	}
	defer app.Close()

	cfg := app.Config.Stream
	if *symbolsFlag != "" {
		cfg.Symbols = screener.ParseSymbols(*symbolsFlag)
	}
	if *queueSize >= 0 {
		cfg.QueueSize = *queueSize
	}

	client, err := app.Alpaca()
	if err != nil {
		app.Fatal("alpaca", err)
	}

	queue := stream.NewQueue[stream.Quote](cfg.QueueSize)
	book := stream.NewQuoteBook()
	consumer := stream.NewConsumer(queue, func(_ context.Context, q stream.Quote) error {
		merged := book.Update(q)
		app.Logger.Debug("quote",
			zap.String("symbol", merged.Symbol),
			zap.Float64("bid", merged.BidPrice),
			zap.Float64("ask", merged.AskPrice),
			zap.Float64("last", merged.LastPrice))
		return nil
	}, app.Logger)
	consumer.Start(app.Ctx)

	go func() {
		ticker := time.NewTicker(*every)
		defer ticker.Stop()
		for {
			select {
			case <-app.Ctx.Done():
				return
			case <-ticker.C:
				printBook(book, queue)
			}
		}
	}()

	if err := client.QuoteStream(app.Ctx, cfg.Symbols, queue); err != nil {
		app.Logger.Error("stream ended", zap.Error(err))
	}
	if err := consumer.Wait(); err != nil && app.Ctx.Err() == nil {
		app.Logger.Error("consumer", zap.Error(err))
	}

	printBook(book, queue)
	app.Save(*save, "quote_book", book.Snapshot())
}

func printBook(book *stream.QuoteBook, queue *stream.Queue[stream.Quote]) {
	fmt.Printf("\n%s  queued=%d dropped=%d\n", time.Now().Format("15:04:05"), queue.Len(), queue.Dropped())
	fmt.Printf("%-7s %10s %8s %10s %8s %10s %8s\n", "Symbol", "Bid", "Size", "Ask", "Size", "Last", "Spread")
	for _, q := range book.Snapshot() {
		fmt.Printf("%-7s %10.2f %8.0f %10.2f %8.0f %10.2f %8.3f\n",
			q.Symbol, q.BidPrice, q.BidSize, q.AskPrice, q.AskSize, q.LastPrice, q.Spread())
	}
}
