// ftx-stream/pkg/ftx/model_test.go
package ftx

import (
	"encoding/json"
	"testing"
)

// Список сделок длины N разворачивается ровно в N событий Trade с
// сохранением порядка; market копируется из конверта.
func TestResponseEvents_TradesFlatten(t *testing.T) {
	raw := `{
		"type": "update",
		"channel": "trades",
		"market": "BTC-PERP",
		"data": [
			{"id": 1, "price": 10000.5, "size": 0.25, "side": "buy", "liquidation": false, "time": "2021-06-10T20:33:17.395939+00:00"},
			{"id": 2, "price": 10001.0, "size": 1.5, "side": "sell", "liquidation": true, "time": "2021-06-10T20:33:17.395939+00:00"},
			{"id": 3, "price": 10002.0, "size": 0.1, "side": "buy", "liquidation": false, "time": "2021-06-10T20:33:17.395939+00:00"}
		]
	}`
	var resp response
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}

	evts, err := resp.events()
	if err != nil {
		t.Fatalf("events(): %v", err)
	}
	if len(evts) != 3 {
		t.Fatalf("expected 3 events, got %d", len(evts))
	}
	for i, want := range []int64{1, 2, 3} {
		trade, ok := evts[i].(Trade)
		if !ok {
			t.Fatalf("event %d is %T, want Trade", i, evts[i])
		}
		if trade.ID != want {
			t.Errorf("event %d: ID = %d, want %d (order must be preserved)", i, trade.ID, want)
		}
		if trade.Market != "BTC-PERP" {
			t.Errorf("event %d: Market = %q, want BTC-PERP", i, trade.Market)
		}
		if trade.Kind() != EventTrade {
			t.Errorf("event %d: Kind = %q", i, trade.Kind())
		}
	}
}

// Обновление стакана разворачивается 1:1.
func TestResponseEvents_Orderbook(t *testing.T) {
	raw := `{
		"type": "partial",
		"channel": "orderbook",
		"market": "ETH-PERP",
		"data": {
			"action": "partial",
			"bids": [[2000.0, 1.5], [1999.5, 3.0]],
			"asks": [[2000.5, 2.0]],
			"checksum": 123456789,
			"time": 1621924064.4563
		}
	}`
	var resp response
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}

	evts, err := resp.events()
	if err != nil {
		t.Fatalf("events(): %v", err)
	}
	if len(evts) != 1 {
		t.Fatalf("expected 1 event, got %d", len(evts))
	}
	ob, ok := evts[0].(OrderbookUpdate)
	if !ok {
		t.Fatalf("event is %T, want OrderbookUpdate", evts[0])
	}
	if ob.Action != "partial" {
		t.Errorf("Action = %q, want partial", ob.Action)
	}
	if ob.Market != "ETH-PERP" {
		t.Errorf("Market = %q, want ETH-PERP", ob.Market)
	}
	if len(ob.Bids) != 2 || ob.Bids[0][0] != 2000.0 || ob.Bids[0][1] != 1.5 {
		t.Errorf("Bids decoded incorrectly: %v", ob.Bids)
	}
	if ob.Checksum != 123456789 {
		t.Errorf("Checksum = %d", ob.Checksum)
	}
}

// Fill разворачивается 1:1; market берётся из данных.
func TestResponseEvents_Fill(t *testing.T) {
	raw := `{
		"type": "update",
		"channel": "fills",
		"data": {
			"id": 42, "market": "BTC-PERP", "future": "BTC-PERP", "type": "order",
			"side": "buy", "price": 10000.0, "size": 0.5,
			"orderId": 100, "tradeId": 200,
			"fee": 0.25, "feeRate": 0.0005, "liquidity": "taker",
			"time": "2021-06-10T20:33:17.395939+00:00"
		}
	}`
	var resp response
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}

	evts, err := resp.events()
	if err != nil {
		t.Fatalf("events(): %v", err)
	}
	if len(evts) != 1 {
		t.Fatalf("expected 1 event, got %d", len(evts))
	}
	fill, ok := evts[0].(Fill)
	if !ok {
		t.Fatalf("event is %T, want Fill", evts[0])
	}
	if fill.ID != 42 || fill.Market != "BTC-PERP" || fill.OrderID != 100 {
		t.Errorf("fill decoded incorrectly: %+v", fill)
	}
	if fill.Kind() != EventFill {
		t.Errorf("Kind = %q", fill.Kind())
	}
}

// Сообщение без данных (ack, info) событий не порождает.
func TestResponseEvents_NoData(t *testing.T) {
	for _, raw := range []string{
		`{"type": "subscribed", "channel": "trades", "market": "BTC-PERP"}`,
		`{"type": "update", "channel": "trades", "market": "BTC-PERP", "data": null}`,
	} {
		var resp response
		if err := json.Unmarshal([]byte(raw), &resp); err != nil {
			t.Fatalf("unmarshal response: %v", err)
		}
		evts, err := resp.events()
		if err != nil {
			t.Fatalf("events(): %v", err)
		}
		if len(evts) != 0 {
			t.Errorf("expected no events for %s, got %d", raw, len(evts))
		}
	}
}

// Неожиданная форма полезной нагрузки — ошибка декодирования, без
// тихого пропуска.
func TestResponseEvents_UnexpectedPayload(t *testing.T) {
	raw := `{"type": "update", "channel": "ticker", "market": "BTC-PERP", "data": {"bid": 1.0}}`
	var resp response
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if _, err := resp.events(); err == nil {
		t.Error("expected error for unhandled payload shape, got nil")
	}
}

func TestChannelValidate(t *testing.T) {
	cases := []struct {
		name    string
		ch      Channel
		wantErr bool
	}{
		{"orderbook", Orderbook("BTC-PERP"), false},
		{"trades", Trades("ETH-PERP"), false},
		{"ticker", Ticker("BTC-PERP"), false},
		{"fills", Fills(), false},
		{"tradesNoMarket", Channel{Kind: ChannelTrades}, true},
		{"fillsWithMarket", Channel{Kind: ChannelFills, Market: "BTC-PERP"}, true},
		{"unknown", Channel{Kind: "candles", Market: "BTC-PERP"}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.ch.Validate()
			if (err != nil) != c.wantErr {
				t.Errorf("Validate() = %v; wantErr=%v", err, c.wantErr)
			}
		})
	}
}

// Каналы сравниваются по значению.
func TestChannelEquality(t *testing.T) {
	if Trades("BTC-PERP") != Trades("BTC-PERP") {
		t.Error("identical channels must compare equal")
	}
	if Trades("BTC-PERP") == Trades("ETH-PERP") {
		t.Error("different markets must not compare equal")
	}
	if Trades("BTC-PERP") == Orderbook("BTC-PERP") {
		t.Error("different kinds must not compare equal")
	}
}
