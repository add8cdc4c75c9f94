package riskmanagement

import (
	"errors"
	"testing"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func TestPositionSize(t *testing.T) {
	tests := []struct {
		name       string
		acc, risk  float64
		entry, stp float64
		want       int64
	}{
		{"long", 10000, 1, 50, 48, 50},
		{"rounds down", 10000, 1, 50, 47, 33},
		{"short side uses distance", 10000, 2, 20, 21, 200},
		{"entry equals stop", 10000, 1, 50, 50, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PositionSize(tt.acc, tt.risk, tt.entry, tt.stp)
			if err != nil {
				t.Fatalf("PositionSize() error = %v", err)
			}
			if got.Shares != tt.want {
				t.Errorf("Shares = %d, want %d", got.Shares, tt.want)
			}
		})
	}

	if _, err := PositionSize(0, 1, 10, 9); !errors.Is(err, ErrInvalidRisk) {
		t.Errorf("err = %v, want ErrInvalidRisk", err)
	}
}

func TestBracketOrder(t *testing.T) {
	b, err := BracketOrder("ABC", 10, 12.345, 11.001, 0)
	if err != nil {
		t.Fatalf("BracketOrder() error = %v", err)
	}
	if got := b.Limit.StringFixed(2); got != "12.35" {
		t.Errorf("Limit = %s, want 12.35", got)
	}
	if got := b.StopLoss.StringFixed(2); got != "11.00" {
		t.Errorf("StopLoss = %s, want 11.00", got)
	}
	if got := b.TakeProfit.StringFixed(2); got != "86.45" {
		t.Errorf("TakeProfit = %s, want 86.45", got)
	}
	if got := b.Risk(); !got.Equal(decimal.RequireFromString("13.5")) {
		t.Errorf("Risk = %s, want 13.5", got)
	}

	req := b.Request()
	if req.OrderClass != alpaca.Bracket || req.Type != alpaca.Limit || req.Side != alpaca.Buy || req.TimeInForce != alpaca.Day {
		t.Errorf("request = %+v, want day limit buy bracket", req)
	}
	if !req.Qty.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Qty = %s, want 10", req.Qty)
	}
	if !req.StopLoss.StopPrice.Equal(b.StopLoss) || !req.TakeProfit.LimitPrice.Equal(b.TakeProfit) {
		t.Error("legs do not match bracket prices")
	}

	bad := []struct {
		name        string
		shares      int64
		limit, stop float64
		want        error
	}{
		{"no shares", 0, 10, 9, ErrInvalidOrder},
		{"stop above", 5, 10, 11, ErrStopAboveEntry},
		{"no stop", 5, 10, 0, ErrInvalidOrder},
	}
	for _, tt := range bad {
		if _, err := BracketOrder("ABC", tt.shares, tt.limit, tt.stop, 2); !errors.Is(err, tt.want) {
			t.Errorf("%s: err = %v, want %v", tt.name, err, tt.want)
		}
	}
}

type fakeClient struct {
	tradable  bool
	placed    []alpaca.PlaceOrderRequest
	open      []alpaca.Order
	cancelled []string
	failID    string
}

func (f *fakeClient) GetAsset(symbol string) (*alpaca.Asset, error) {
	return &alpaca.Asset{Symbol: symbol, Tradable: f.tradable}, nil
}

func (f *fakeClient) GetAccount() (*alpaca.Account, error) {
	return &alpaca.Account{Equity: decimal.NewFromInt(25000)}, nil
}

func (f *fakeClient) GetOrders(alpaca.GetOrdersRequest) ([]alpaca.Order, error) {
	return f.open, nil
}

func (f *fakeClient) PlaceOrder(req alpaca.PlaceOrderRequest) (*alpaca.Order, error) {
	f.placed = append(f.placed, req)
	return &alpaca.Order{ID: "order-1", Symbol: req.Symbol}, nil
}

func (f *fakeClient) CancelOrder(id string) error {
	if id == f.failID {
		return errors.New("cancel rejected")
	}
	f.cancelled = append(f.cancelled, id)
	return nil
}

func TestTrader_Submit(t *testing.T) {
	b, _ := BracketOrder("ABC", 5, 10, 9, 2)

	client := &fakeClient{tradable: true}
	order, err := NewTrader(client, zap.NewNop()).Submit(b)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if order.ID != "order-1" || len(client.placed) != 1 {
		t.Errorf("order = %+v, placed = %d", order, len(client.placed))
	}

	client = &fakeClient{tradable: false}
	if _, err := NewTrader(client, nil).Submit(b); !errors.Is(err, ErrNotTradable) {
		t.Errorf("err = %v, want ErrNotTradable", err)
	}
	if len(client.placed) != 0 {
		t.Error("order placed for untradable asset")
	}
}

func TestTrader_AccountAndCancel(t *testing.T) {
	client := &fakeClient{
		open:   []alpaca.Order{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		failID: "b",
	}
	tr := NewTrader(client, zap.NewNop())

	equity, err := tr.AccountEquity()
	if err != nil || equity != 25000 {
		t.Errorf("AccountEquity() = %v, %v, want 25000", equity, err)
	}
	n, err := tr.CancelAll()
	if err != nil {
		t.Fatalf("CancelAll() error = %v", err)
	}
	if n != 2 || len(client.cancelled) != 2 {
		t.Errorf("cancelled = %d, want 2", n)
	}
}
