package alpacadata

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"go.uber.org/zap"

	"marketlab/pkg/portfolio"
)

// Positions sums share quantities per symbol across the account's lots.
func (c *Client) Positions(ctx context.Context) (portfolio.Positions, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	positions, err := c.Trading.GetPositions()
	if err != nil {
		return nil, fmt.Errorf("failed to get positions: %w", err)
	}
	out := make(portfolio.Positions, len(positions))
	for _, pos := range positions {
		qty, _ := pos.Qty.Float64()
		out[strings.ToUpper(pos.Symbol)] += qty
	}
	c.Logger.Debug("loaded positions", zap.Int("symbols", len(out)))
	return out, nil
}

// CashDividends returns cash dividends with an ex-date in [start, end].
func (c *Client) CashDividends(ctx context.Context, symbols []string, start, end time.Time) ([]portfolio.Dividend, error) {
	var out []portfolio.Dividend
	for _, batch := range batches(symbols, BATCH_SIZE) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		actions, err := c.Market.GetCorporateActions(marketdata.GetCorporateActionsRequest{
			Symbols: batch,
			Types:   []string{"cash_dividend"},
			Start:   civil.DateOf(start),
			End:     civil.DateOf(end),
		})
		if err != nil {
			return nil, fmt.Errorf("GetCorporateActions: %w", err)
		}
		for _, d := range actions.CashDividends {
			out = append(out, portfolio.Dividend{
				Symbol: strings.ToUpper(d.Symbol),
				ExDate: d.ExDate.In(time.UTC),
				Rate:   d.Rate,
			})
		}
	}
	return out, nil
}
