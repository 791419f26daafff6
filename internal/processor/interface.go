package processor

import (
	"context"

	"github.com/YaganovValera/ftx-stream/pkg/ftx"
)

// Processor определяет контракт на обработку нормализованных WS-событий.
type Processor interface {
	// Process сериализует одно событие и публикует результат в Kafka.
	Process(ctx context.Context, ev ftx.Event) error
}
