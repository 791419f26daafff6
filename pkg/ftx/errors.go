// ftx-stream/pkg/ftx/errors.go
package ftx

import (
	"errors"
	"fmt"
)

// ErrMissingSubscriptionConfirmation: окно подтверждения (ConfirmWindow
// входящих сообщений) исчерпано без subscribed/unsubscribed-ответа.
// Канал при этом остаётся записанным локально со статусом failed.
var ErrMissingSubscriptionConfirmation = errors.New("ftx: missing subscription confirmation")

// ErrConnectionClosed: транспорт закрыт, сессия больше непригодна.
var ErrConnectionClosed = errors.New("ftx: connection closed")

// NotSubscribedError возвращается из Unsubscribe до любых сетевых
// операций, если канал не числится в локальном наборе подписок.
type NotSubscribedError struct {
	Channel Channel
}

func (e *NotSubscribedError) Error() string {
	return fmt.Sprintf("ftx: not subscribed to channel %s", e.Channel)
}
