// ftx-stream/pkg/ftx/model.go
package ftx

import (
	"encoding/json"
	"fmt"
	"time"
)

// -----------------------------------------------------------------------------
// Исходящие команды
// -----------------------------------------------------------------------------

const (
	opLogin       = "login"
	opPing        = "ping"
	opSubscribe   = "subscribe"
	opUnsubscribe = "unsubscribe"
)

type loginRequest struct {
	Op   string    `json:"op"`
	Args loginArgs `json:"args"`
}

type loginArgs struct {
	Key  string `json:"key"`
	Sign string `json:"sign"`
	Time int64  `json:"time"`
	// Subaccount сериализуется как null, если не задан.
	Subaccount *string `json:"subaccount"`
}

type pingRequest struct {
	Op string `json:"op"`
}

type channelRequest struct {
	Op      string `json:"op"`
	Channel string `json:"channel"`
	Market  string `json:"market"`
}

// -----------------------------------------------------------------------------
// Входящие сообщения
// -----------------------------------------------------------------------------

// responseType — тег входящего сообщения; определяет маршрутизацию,
// сам наружу никогда не отдаётся.
type responseType string

const (
	typeSubscribed   responseType = "subscribed"
	typeUnsubscribed responseType = "unsubscribed"
	typePong         responseType = "pong"
	typePartial      responseType = "partial"
	typeUpdate       responseType = "update"
	typeError        responseType = "error"
	typeInfo         responseType = "info"
)

// response — декодированное сообщение сервера. Data остаётся сырой до
// маршрутизации по имени канала.
type response struct {
	Type    responseType    `json:"type"`
	Channel ChannelKind     `json:"channel"`
	Market  string          `json:"market"`
	Code    int             `json:"code"`
	Msg     string          `json:"msg"`
	Data    json.RawMessage `json:"data"`
}

// -----------------------------------------------------------------------------
// Нормализованные события
// -----------------------------------------------------------------------------

// EventKind — вид нормализованного события для маршрутизации потребителем.
type EventKind string

const (
	EventTrade     EventKind = "trade"
	EventOrderbook EventKind = "orderbook"
	EventFill      EventKind = "fill"
)

// Event — единица, видимая вызывающему: одна сделка, одно обновление
// стакана или одно исполнение. Батчи расплющиваются при декодировании.
type Event interface {
	Kind() EventKind
}

// Trade — одна сделка из trades-канала.
type Trade struct {
	Market      string    `json:"market,omitempty"`
	ID          int64     `json:"id"`
	Price       float64   `json:"price"`
	Size        float64   `json:"size"`
	Side        string    `json:"side"`
	Liquidation bool      `json:"liquidation"`
	Time        time.Time `json:"time"`
}

func (Trade) Kind() EventKind { return EventTrade }

// OrderbookUpdate — снапшот (action=partial) или дельта (action=update)
// стакана.
type OrderbookUpdate struct {
	Market   string       `json:"market,omitempty"`
	Action   string       `json:"action"`
	Bids     [][2]float64 `json:"bids"`
	Asks     [][2]float64 `json:"asks"`
	Checksum uint32       `json:"checksum"`
	Time     float64      `json:"time"`
}

func (OrderbookUpdate) Kind() EventKind { return EventOrderbook }

// Fill — одно исполнение ордера из account-scoped fills-канала.
type Fill struct {
	ID        int64     `json:"id"`
	Market    string    `json:"market"`
	Future    string    `json:"future"`
	Type      string    `json:"type"`
	Side      string    `json:"side"`
	Price     float64   `json:"price"`
	Size      float64   `json:"size"`
	OrderID   int64     `json:"orderId"`
	TradeID   int64     `json:"tradeId"`
	Fee       float64   `json:"fee"`
	FeeRate   float64   `json:"feeRate"`
	Liquidity string    `json:"liquidity"`
	Time      time.Time `json:"time"`
}

func (Fill) Kind() EventKind { return EventFill }

// events разворачивает полезную нагрузку сообщения в ноль или более
// событий. Список сделок превращается в событие на каждую сделку,
// с сохранением порядка; стакан и исполнение — 1:1.
func (r *response) events() ([]Event, error) {
	if len(r.Data) == 0 || string(r.Data) == "null" {
		return nil, nil
	}

	switch r.Channel {
	case ChannelTrades:
		var trades []Trade
		if err := json.Unmarshal(r.Data, &trades); err != nil {
			return nil, fmt.Errorf("ftx: decode trades: %w", err)
		}
		out := make([]Event, 0, len(trades))
		for _, t := range trades {
			t.Market = r.Market
			out = append(out, t)
		}
		return out, nil

	case ChannelOrderbook:
		var ob OrderbookUpdate
		if err := json.Unmarshal(r.Data, &ob); err != nil {
			return nil, fmt.Errorf("ftx: decode orderbook: %w", err)
		}
		ob.Market = r.Market
		return []Event{ob}, nil

	case ChannelFills:
		var fill Fill
		if err := json.Unmarshal(r.Data, &fill); err != nil {
			return nil, fmt.Errorf("ftx: decode fill: %w", err)
		}
		return []Event{fill}, nil
	}

	return nil, fmt.Errorf("ftx: unexpected data payload on channel %q", r.Channel)
}
