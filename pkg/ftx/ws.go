// ftx-stream/pkg/ftx/ws.go
package ftx

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/YaganovValera/ftx-stream/pkg/logger"
)

// Ws — одна живая сессия: владеет транспортом, локальным набором
// подписок и FIFO-очередью событий, ожидающих выдачи через Next.
//
// Сессия single-owner: методы не синхронизированы и должны вызываться
// последовательно одним логическим владельцем. Конкурентный доступ
// требует внешней сериализации. Переподключения нет: фатальная ошибка
// транспорта завершает сессию навсегда.
type Ws struct {
	conn Conn
	cfg  Config
	log  *logger.Logger

	subs []Subscription
	buf  []Event // FIFO: события добавляются в хвост, выдаются с головы

	readC  chan readResult
	done   chan struct{}
	ticker *time.Ticker
	pingC  <-chan time.Time
}

// readResult — один кадр от reader-горутины.
type readResult struct {
	messageType int
	data        []byte
	err         error
}

// Connect устанавливает соединение с основным эндпоинтом (или cfg.URL,
// если задан), отправляет login-команду и возвращает готовую сессию.
// Логин fire-and-forget: протокол не присылает явного подтверждения,
// ошибка аутентификации всплывёт позже error-сообщением либо отказом
// подписки на account-scoped каналы.
func Connect(ctx context.Context, cfg Config, log *logger.Logger) (*Ws, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("ftx: dial %s: %w", cfg.URL, err)
	}

	w := newSession(conn, cfg, log)
	if err := w.login(); err != nil {
		w.Close()
		return nil, err
	}

	w.log.Info("ws: connected", zap.String("url", cfg.URL))
	return w, nil
}

// ConnectUS подключается к региональному эндпоинту ftx.us.
// Схема сообщений идентична основному.
func ConnectUS(ctx context.Context, cfg Config, log *logger.Logger) (*Ws, error) {
	cfg.URL = EndpointUS
	return Connect(ctx, cfg, log)
}

// newSession собирает сессию поверх готового транспорта и запускает
// reader-горутину. Кооперативный мультиплекс: reader кладёт кадры в
// ограниченный канал (блокируясь при переполнении — кадры не теряются),
// цикл сессии выбирает между этим каналом и ping-тикером.
func newSession(conn Conn, cfg Config, log *logger.Logger) *Ws {
	w := &Ws{
		conn:   conn,
		cfg:    cfg,
		log:    log.Named("ftx-ws"),
		readC:  make(chan readResult, cfg.BufferSize),
		done:   make(chan struct{}),
		ticker: time.NewTicker(cfg.PingInterval),
	}
	w.pingC = w.ticker.C
	go w.readLoop()
	return w
}

func (w *Ws) readLoop() {
	defer close(w.readC)
	for {
		mt, data, err := w.conn.ReadMessage()
		select {
		case w.readC <- readResult{messageType: mt, data: data, err: err}:
		case <-w.done:
			return
		}
		if err != nil {
			return
		}
	}
}

// login подписывает и отправляет команду аутентификации:
// sign = HMAC-SHA256("{ts}websocket_login", secret), hex.
func (w *Ws) login() error {
	ts := time.Now().UnixMilli()
	args := loginArgs{
		Key:  w.cfg.Key,
		Sign: signLogin(w.cfg.Secret, ts),
		Time: ts,
	}
	if w.cfg.Subaccount != "" {
		args.Subaccount = &w.cfg.Subaccount
	}
	return w.send(loginRequest{Op: opLogin, Args: args})
}

func (w *Ws) ping() error {
	return w.send(pingRequest{Op: opPing})
}

func (w *Ws) send(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("ftx: encode command: %w", err)
	}
	if err := w.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("ftx: send: %w", err)
	}
	return nil
}

// Subscribe подписывается на указанные каналы, последовательно ожидая
// подтверждение по каждому. Каналы записываются в локальный набор ДО
// подтверждения (оптимистично); при таймауте окна канал остаётся в
// наборе со статусом failed — вызывающий чистит его сам (retry или
// Unsubscribe). Данные, пришедшие до подтверждения, буферизуются и
// позже выдаются через Next в исходном порядке.
func (w *Ws) Subscribe(ctx context.Context, channels []Channel) error {
	for _, ch := range channels {
		if err := ch.Validate(); err != nil {
			return err
		}
	}

	start := len(w.subs)
	for _, ch := range channels {
		w.subs = append(w.subs, Subscription{Channel: ch, Status: SubscriptionPending})
	}

	for i, ch := range channels {
		if err := w.confirmChannelOp(ctx, opSubscribe, ch, typeSubscribed); err != nil {
			w.subs[start+i].Status = SubscriptionFailed
			return err
		}
		w.subs[start+i].Status = SubscriptionConfirmed
		w.log.Info("ws: subscribed", zap.String("channel", ch.String()))
	}
	return nil
}

// Unsubscribe отписывается от указанных каналов. Валидация до любого
// I/O: каждый канал обязан числиться в локальном наборе, иначе ошибка
// без единой отправленной команды. Набор мутируется только после
// подтверждения ВСЕХ каналов (всё-или-ничего); частичный отказ
// оставляет набор нетронутым.
func (w *Ws) Unsubscribe(ctx context.Context, channels []Channel) error {
	for _, ch := range channels {
		if !w.tracks(ch) {
			return &NotSubscribedError{Channel: ch}
		}
	}

	for _, ch := range channels {
		if err := w.confirmChannelOp(ctx, opUnsubscribe, ch, typeUnsubscribed); err != nil {
			return err
		}
		w.log.Info("ws: unsubscribed", zap.String("channel", ch.String()))
	}

	w.removeChannels(channels)
	return nil
}

// UnsubscribeAll отписывается от снапшота текущего набора и безусловно
// очищает его. Пустой набор — no-op.
func (w *Ws) UnsubscribeAll(ctx context.Context) error {
	channels := make([]Channel, len(w.subs))
	for i, s := range w.subs {
		channels[i] = s.Channel
	}
	if err := w.Unsubscribe(ctx, channels); err != nil {
		return err
	}
	w.subs = w.subs[:0]
	return nil
}

// Subscriptions возвращает снапшот локального набора подписок вместе
// со статусами — включая записи failed, оставшиеся после таймаутов.
func (w *Ws) Subscriptions() []Subscription {
	out := make([]Subscription, len(w.subs))
	copy(out, w.subs)
	return out
}

// Next возвращает следующее нормализованное событие, прозрачно
// обслуживая keepalive в ожидании. Порядок строго FIFO: как между
// сообщениями, так и внутри батча сделок. Блокируется до события,
// фатальной ошибки или отмены ctx.
func (w *Ws) Next(ctx context.Context) (Event, error) {
	for {
		if len(w.buf) > 0 {
			ev := w.buf[0]
			w.buf = w.buf[1:]
			return ev, nil
		}

		resp, err := w.nextResponse(ctx)
		if err != nil {
			return nil, err
		}
		if err := w.handleResponse(resp); err != nil {
			return nil, err
		}
	}
}

// Close останавливает keepalive и закрывает транспорт. Сессия после
// этого непригодна.
func (w *Ws) Close() {
	w.ticker.Stop()
	select {
	case <-w.done:
	default:
		close(w.done)
	}
	_ = w.conn.Close()
}

// confirmChannelOp отправляет команду по каналу и ждёт подтверждения
// нужного типа в пределах окна.
func (w *Ws) confirmChannelOp(ctx context.Context, op string, ch Channel, want responseType) error {
	req := channelRequest{Op: op, Channel: string(ch.Kind), Market: ch.Market}
	if err := w.send(req); err != nil {
		return err
	}
	return w.awaitConfirmation(ctx, want)
}

// awaitConfirmation сканирует до ConfirmWindow входящих сообщений.
// Подтверждение завершает ожидание; всё остальное уходит в обычную
// обработку, чтобы данные, обгоняющие ack, не потерялись. Исчерпание
// окна — ErrMissingSubscriptionConfirmation.
func (w *Ws) awaitConfirmation(ctx context.Context, want responseType) error {
	for i := 0; i < w.cfg.ConfirmWindow; i++ {
		resp, err := w.nextResponse(ctx)
		if err != nil {
			return err
		}
		if resp.Type == want {
			return nil
		}
		if err := w.handleResponse(resp); err != nil {
			return err
		}
	}
	return ErrMissingSubscriptionConfirmation
}

// nextResponse — единственная точка ожидания: гонка ping-тикера и
// входящего кадра, обслуживается то, что готово первым. Pong-ответы
// сервера гасятся здесь же и наружу не выходят. Нетекстовые кадры
// игнорируются; закрытие или ошибка транспорта фатальны.
func (w *Ws) nextResponse(ctx context.Context) (*response, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case <-w.pingC:
			if err := w.ping(); err != nil {
				return nil, err
			}

		case r, ok := <-w.readC:
			if !ok {
				return nil, ErrConnectionClosed
			}
			if r.err != nil {
				return nil, fmt.Errorf("ftx: read: %w", r.err)
			}
			if r.messageType != websocket.TextMessage {
				continue
			}

			var resp response
			if err := json.Unmarshal(r.data, &resp); err != nil {
				return nil, fmt.Errorf("ftx: decode message: %w", err)
			}
			if resp.Type == typePong {
				continue
			}
			return &resp, nil
		}
	}
}

// handleResponse разворачивает полезную нагрузку сообщения в буфер.
// Сообщения без данных (ack-и чужих операций, error, info) событий не
// порождают; error-сообщения логируются.
func (w *Ws) handleResponse(resp *response) error {
	if resp.Type == typeError {
		w.log.Warn("ws: server error message",
			zap.Int("code", resp.Code),
			zap.String("msg", resp.Msg),
		)
		return nil
	}

	evts, err := resp.events()
	if err != nil {
		return err
	}
	w.buf = append(w.buf, evts...)
	return nil
}

// tracks сообщает, числится ли канал в локальном наборе (в любом
// статусе — в том числе failed после таймаута подтверждения).
func (w *Ws) tracks(ch Channel) bool {
	for _, s := range w.subs {
		if s.Channel == ch {
			return true
		}
	}
	return false
}

// removeChannels убирает из набора все записи по указанным каналам.
func (w *Ws) removeChannels(channels []Channel) {
	retained := w.subs[:0]
	for _, s := range w.subs {
		remove := false
		for _, ch := range channels {
			if s.Channel == ch {
				remove = true
				break
			}
		}
		if !remove {
			retained = append(retained, s)
		}
	}
	w.subs = retained
}
