package riskmanagement

import (
	"errors"
	"fmt"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const DEFAULT_TAKE_PROFIT_MULTIPLE = 7.0

var (
	ErrNotTradable    = errors.New("riskmanagement: asset is not tradable")
	ErrInvalidOrder   = errors.New("riskmanagement: invalid bracket order")
	ErrStopAboveEntry = errors.New("riskmanagement: stop must be below entry")
)

// TradingClient is the subset of *alpaca.Client used for order entry.
type TradingClient interface {
	GetAsset(symbol string) (*alpaca.Asset, error)
	GetAccount() (*alpaca.Account, error)
	GetOrders(req alpaca.GetOrdersRequest) ([]alpaca.Order, error)
	PlaceOrder(req alpaca.PlaceOrderRequest) (*alpaca.Order, error)
	CancelOrder(orderID string) error
}

// Bracket is a buy limit entry with stop-loss and take-profit legs, prices
// rounded to cents.
type Bracket struct {
	Symbol     string          `json:"symbol"`
	Shares     int64           `json:"shares"`
	Limit      decimal.Decimal `json:"limit_price"`
	StopLoss   decimal.Decimal `json:"stop_loss"`
	TakeProfit decimal.Decimal `json:"take_profit"`
}

// BracketOrder prices the legs. The take-profit is the entry times
// takeProfitMultiple; a non-positive multiple uses the default.
func BracketOrder(symbol string, shares int64, limit, stop, takeProfitMultiple float64) (Bracket, error) {
	if symbol == "" || shares <= 0 || limit <= 0 || stop <= 0 {
		return Bracket{}, ErrInvalidOrder
	}
	if stop >= limit {
		return Bracket{}, ErrStopAboveEntry
	}
	if takeProfitMultiple <= 0 {
		takeProfitMultiple = DEFAULT_TAKE_PROFIT_MULTIPLE
	}
	entry := decimal.NewFromFloat(limit).Round(2)
	return Bracket{
		Symbol:     symbol,
		Shares:     shares,
		Limit:      entry,
		StopLoss:   decimal.NewFromFloat(stop).Round(2),
		TakeProfit: entry.Mul(decimal.NewFromFloat(takeProfitMultiple)).Round(2),
	}, nil
}

func (b Bracket) Request() alpaca.PlaceOrderRequest {
	qty := decimal.NewFromInt(b.Shares)
	limit, stop, take := b.Limit, b.StopLoss, b.TakeProfit
	return alpaca.PlaceOrderRequest{
		Symbol:      b.Symbol,
		Qty:         &qty,
		Side:        alpaca.Buy,
		Type:        alpaca.Limit,
		TimeInForce: alpaca.Day,
		LimitPrice:  &limit,
		OrderClass:  alpaca.Bracket,
		StopLoss: &alpaca.StopLoss{
			StopPrice: &stop,
		},
		TakeProfit: &alpaca.TakeProfit{
			LimitPrice: &take,
		},
	}
}

// Risk is the dollar loss if the stop fills.
func (b Bracket) Risk() decimal.Decimal {
	return b.Limit.Sub(b.StopLoss).Mul(decimal.NewFromInt(b.Shares))
}

type Trader struct {
	Client TradingClient
	Logger *zap.Logger
}

func NewTrader(client TradingClient, logger *zap.Logger) *Trader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Trader{Client: client, Logger: logger}
}

// Submit checks the asset is tradable and places the bracket order.
func (t *Trader) Submit(b Bracket) (*alpaca.Order, error) {
	asset, err := t.Client.GetAsset(b.Symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}
	if !asset.Tradable {
		return nil, fmt.Errorf("%s: %w", b.Symbol, ErrNotTradable)
	}

	order, err := t.Client.PlaceOrder(b.Request())
	if err != nil {
		return nil, fmt.Errorf("failed to place order: %w", err)
	}
	t.Logger.Info("bracket order submitted",
		zap.String("symbol", b.Symbol),
		zap.String("order_id", order.ID),
		zap.Int64("shares", b.Shares),
		zap.String("limit", b.Limit.StringFixed(2)),
		zap.String("stop", b.StopLoss.StringFixed(2)),
		zap.String("take_profit", b.TakeProfit.StringFixed(2)),
		zap.String("status", order.Status))
	return order, nil
}

// AccountEquity is the account's equity as a float for sizing.
func (t *Trader) AccountEquity() (float64, error) {
	account, err := t.Client.GetAccount()
	if err != nil {
		return 0, fmt.Errorf("failed to get account: %w", err)
	}
	equity, _ := account.Equity.Float64()
	return equity, nil
}

func (t *Trader) OpenOrders() ([]alpaca.Order, error) {
	orders, err := t.Client.GetOrders(alpaca.GetOrdersRequest{Status: "open"})
	if err != nil {
		return nil, fmt.Errorf("failed to get orders: %w", err)
	}
	return orders, nil
}

// CancelAll cancels every open order and returns how many were cancelled.
// Individual failures are logged.
func (t *Trader) CancelAll() (int, error) {
	orders, err := t.OpenOrders()
	if err != nil {
		return 0, err
	}
	cancelled := 0
	for _, order := range orders {
		if err := t.Client.CancelOrder(order.ID); err != nil {
			t.Logger.Warn("failed to cancel order", zap.String("order_id", order.ID), zap.Error(err))
			continue
		}
		cancelled++
	}
	return cancelled, nil
}
