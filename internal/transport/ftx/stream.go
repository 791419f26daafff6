// ftx-stream/internal/transport/ftx/stream.go
package ftx

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/YaganovValera/ftx-stream/pkg/ftx"
)

var tracer = otel.Tracer("collector/transport/ftx")

// Session — часть API WS-сессии, нужная коллектору.
type Session interface {
	Subscribe(ctx context.Context, channels []ftx.Channel) error
	Next(ctx context.Context) (ftx.Event, error)
}

// SubscribeWithMetrics оборачивает подписку трассировкой и счётчиками команд.
func SubscribeWithMetrics(ctx context.Context, sess Session, channels []ftx.Channel) error {
	ctx, span := tracer.Start(ctx, "ftx.subscribe")
	defer span.End()

	names := make([]string, len(channels))
	for i, ch := range channels {
		names[i] = ch.String()
	}
	span.SetAttributes(attribute.StringSlice("channels", names))

	if err := sess.Subscribe(ctx, channels); err != nil {
		IncCommand("subscribe", "error")
		span.RecordError(err)
		return err
	}
	IncCommand("subscribe", "ok")
	return nil
}

// NextWithMetrics вытягивает одно событие и учитывает его в метриках.
func NextWithMetrics(ctx context.Context, sess Session) (ftx.Event, error) {
	ctx, span := tracer.Start(ctx, "ftx.next")
	defer span.End()

	ev, err := sess.Next(ctx)
	if err != nil {
		IncError("read")
		span.RecordError(err)
		return nil, err
	}
	kind := string(ev.Kind())
	span.SetAttributes(attribute.String("event_kind", kind))
	IncEvent(kind)
	return ev, nil
}
