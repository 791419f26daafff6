// ftx-stream/pkg/ftx/channel.go
package ftx

import "fmt"

// ChannelKind — имя канала на проводе.
type ChannelKind string

const (
	ChannelOrderbook ChannelKind = "orderbook"
	ChannelTrades    ChannelKind = "trades"
	ChannelTicker    ChannelKind = "ticker"
	ChannelFills     ChannelKind = "fills"
)

// Channel идентифицирует цель подписки. Сравнивается по значению:
// дубликаты и проверка "подписан ли" работают через ==.
type Channel struct {
	Kind   ChannelKind
	Market string // пустой для account-scoped каналов (fills)
}

// Orderbook — канал стакана по инструменту.
func Orderbook(market string) Channel { return Channel{Kind: ChannelOrderbook, Market: market} }

// Trades — канал сделок по инструменту.
func Trades(market string) Channel { return Channel{Kind: ChannelTrades, Market: market} }

// Ticker — канал тикера по инструменту.
func Ticker(market string) Channel { return Channel{Kind: ChannelTicker, Market: market} }

// Fills — account-scoped канал исполнений; требует успешного логина.
func Fills() Channel { return Channel{Kind: ChannelFills} }

func (c Channel) String() string {
	if c.Market == "" {
		return string(c.Kind)
	}
	return fmt.Sprintf("%s:%s", c.Kind, c.Market)
}

// Validate проверяет, что вид канала известен и символ согласован.
func (c Channel) Validate() error {
	switch c.Kind {
	case ChannelOrderbook, ChannelTrades, ChannelTicker:
		if c.Market == "" {
			return fmt.Errorf("ftx: channel %q requires a market", c.Kind)
		}
	case ChannelFills:
		if c.Market != "" {
			return fmt.Errorf("ftx: channel %q is account-scoped, market must be empty", c.Kind)
		}
	default:
		return fmt.Errorf("ftx: unknown channel kind %q", c.Kind)
	}
	return nil
}

// SubscriptionStatus — локально отслеживаемое состояние подписки.
// Набор подписок — оптимистичная проекция серверного состояния:
// канал записывается ДО подтверждения и не откатывается при таймауте
// (поведение исходного протокола); статус делает эту неоднозначность
// наблюдаемой для вызывающего.
type SubscriptionStatus string

const (
	// SubscriptionPending — команда отправлена, подтверждение не получено.
	SubscriptionPending SubscriptionStatus = "pending"
	// SubscriptionConfirmed — сервер прислал subscribed-подтверждение.
	SubscriptionConfirmed SubscriptionStatus = "confirmed"
	// SubscriptionFailed — окно подтверждения исчерпано либо отправка
	// не удалась; канал остаётся в наборе, вызывающий решает, что делать.
	SubscriptionFailed SubscriptionStatus = "failed"
)

// Subscription — одна запись локального набора подписок.
type Subscription struct {
	Channel Channel
	Status  SubscriptionStatus
}
