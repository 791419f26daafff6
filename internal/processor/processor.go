// ftx-stream/internal/processor/processor.go
package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/YaganovValera/ftx-stream/internal/metrics"
	"github.com/YaganovValera/ftx-stream/pkg/ftx"
	"github.com/YaganovValera/ftx-stream/pkg/kafka"
	"github.com/YaganovValera/ftx-stream/pkg/logger"
)

var tracer = otel.Tracer("processor")

// Topics хранит имена топиков Kafka по видам событий.
type Topics struct {
	Trades    string
	OrderBook string
	Fills     string
}

// envelope — формат сообщения в Kafka: тип, инструмент и полезная нагрузка.
type envelope struct {
	Type       string    `json:"type"`
	Market     string    `json:"market,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
	Data       any       `json:"data"`
}

// processorImpl — приватная реализация Processor.
type processorImpl struct {
	producer kafka.Producer
	topics   Topics
	log      *logger.Logger
}

// New создаёт Processor и возвращает его как интерфейс.
func New(producer kafka.Producer, topics Topics, log *logger.Logger) Processor {
	return &processorImpl{
		producer: producer,
		topics:   topics,
		log:      log.Named("processor"),
	}
}

// Process маршрутизирует событие по виду в соответствующий топик.
// Ключ партиционирования — инструмент: события одного рынка сохраняют порядок.
func (p *processorImpl) Process(ctx context.Context, ev ftx.Event) error {
	ctx, span := tracer.Start(ctx, "Process",
		trace.WithAttributes(attribute.String("event.kind", string(ev.Kind()))))
	defer span.End()

	metrics.EventsTotal.Inc()
	start := time.Now()

	var (
		topic  string
		market string
	)
	switch e := ev.(type) {
	case ftx.Trade:
		topic, market = p.topics.Trades, e.Market
	case ftx.OrderbookUpdate:
		topic, market = p.topics.OrderBook, e.Market
	case ftx.Fill:
		topic, market = p.topics.Fills, e.Market
	default:
		return fmt.Errorf("processor: unknown event type %T", ev)
	}

	payload, err := json.Marshal(envelope{
		Type:       string(ev.Kind()),
		Market:     market,
		ReceivedAt: start.UTC(),
		Data:       ev,
	})
	if err != nil {
		metrics.SerializeErrors.Inc()
		p.log.WithContext(ctx).Error("marshal event failed", zap.Error(err))
		span.RecordError(err)
		return nil
	}

	var key []byte
	if market != "" {
		key = []byte(market)
	}
	if err := p.producer.Publish(ctx, topic, key, payload); err != nil {
		metrics.PublishErrors.Inc()
		p.log.WithContext(ctx).Error("publish event failed",
			zap.String("topic", topic), zap.Error(err))
		span.RecordError(err)
		return err
	}

	metrics.PublishLatency.Observe(time.Since(start).Seconds())
	return nil
}
