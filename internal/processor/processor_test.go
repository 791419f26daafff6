// ftx-stream/internal/processor/processor_test.go
package processor

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/YaganovValera/ftx-stream/pkg/ftx"
	"github.com/YaganovValera/ftx-stream/pkg/logger"
)

type publishCall struct {
	topic string
	key   []byte
	value []byte
}

type fakeProducer struct {
	calls []publishCall
	err   error
}

func (f *fakeProducer) Publish(ctx context.Context, topic string, key, value []byte) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, publishCall{topic: topic, key: key, value: value})
	return nil
}

func (f *fakeProducer) Ping(ctx context.Context) error { return nil }
func (f *fakeProducer) Close() error                   { return nil }

func newTestProcessor(t *testing.T, prod *fakeProducer) Processor {
	t.Helper()
	log, _ := logger.New(logger.Config{Level: "error", DevMode: true})
	return New(prod, Topics{
		Trades:    "ftx.trades",
		OrderBook: "ftx.orderbook",
		Fills:     "ftx.fills",
	}, log)
}

func TestProcess_RoutesByKind(t *testing.T) {
	prod := &fakeProducer{}
	proc := newTestProcessor(t, prod)
	ctx := context.Background()

	events := []ftx.Event{
		ftx.Trade{Market: "BTC-PERP", ID: 1, Price: 100, Size: 1, Side: "buy"},
		ftx.OrderbookUpdate{Market: "ETH-PERP", Action: "update"},
		ftx.Fill{Market: "BTC-PERP", ID: 2},
	}
	for _, ev := range events {
		if err := proc.Process(ctx, ev); err != nil {
			t.Fatalf("Process(%T): %v", ev, err)
		}
	}

	if len(prod.calls) != 3 {
		t.Fatalf("expected 3 publishes, got %d", len(prod.calls))
	}
	wantTopics := []string{"ftx.trades", "ftx.orderbook", "ftx.fills"}
	wantKeys := []string{"BTC-PERP", "ETH-PERP", "BTC-PERP"}
	for i, call := range prod.calls {
		if call.topic != wantTopics[i] {
			t.Errorf("call %d: topic = %q, want %q", i, call.topic, wantTopics[i])
		}
		if string(call.key) != wantKeys[i] {
			t.Errorf("call %d: key = %q, want %q", i, call.key, wantKeys[i])
		}
	}
}

func TestProcess_EnvelopeShape(t *testing.T) {
	prod := &fakeProducer{}
	proc := newTestProcessor(t, prod)

	trade := ftx.Trade{Market: "BTC-PERP", ID: 42, Price: 101.5, Size: 0.25, Side: "sell"}
	if err := proc.Process(context.Background(), trade); err != nil {
		t.Fatalf("Process: %v", err)
	}

	var env struct {
		Type   string `json:"type"`
		Market string `json:"market"`
		Data   struct {
			ID    int64   `json:"id"`
			Price float64 `json:"price"`
			Side  string  `json:"side"`
		} `json:"data"`
	}
	if err := json.Unmarshal(prod.calls[0].value, &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if env.Type != "trade" || env.Market != "BTC-PERP" {
		t.Errorf("envelope header = %+v", env)
	}
	if env.Data.ID != 42 || env.Data.Price != 101.5 || env.Data.Side != "sell" {
		t.Errorf("envelope data = %+v", env.Data)
	}
}

func TestProcess_PublishErrorPropagates(t *testing.T) {
	prod := &fakeProducer{err: errors.New("broker down")}
	proc := newTestProcessor(t, prod)

	err := proc.Process(context.Background(), ftx.Trade{Market: "BTC-PERP", ID: 1})
	if err == nil {
		t.Fatal("expected publish error, got nil")
	}
}
