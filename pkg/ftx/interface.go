// github.com/YaganovValera/ftx-stream/pkg/ftx/interface.go
package ftx

// Conn абстрагирует message-framed транспорт WebSocket-сессии.
// Продакшен-реализация — *websocket.Conn из gorilla; тесты подставляют
// скриптованный фейк. Сессия владеет соединением эксклюзивно.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}
