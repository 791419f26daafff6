// ftx-stream/internal/app/collector.go
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/YaganovValera/ftx-stream/internal/config"
	httpserver "github.com/YaganovValera/ftx-stream/internal/http"
	"github.com/YaganovValera/ftx-stream/internal/metrics"
	"github.com/YaganovValera/ftx-stream/internal/processor"
	transportftx "github.com/YaganovValera/ftx-stream/internal/transport/ftx"
	"github.com/YaganovValera/ftx-stream/pkg/backoff"
	"github.com/YaganovValera/ftx-stream/pkg/ftx"
	"github.com/YaganovValera/ftx-stream/pkg/kafka"
	"github.com/YaganovValera/ftx-stream/pkg/logger"
	"github.com/YaganovValera/ftx-stream/pkg/telemetry"
)

// Run собирает все зависимости и крутит основной цикл WS → Kafka
// до отмены ctx или фатальной ошибки. Сессия не переподключается:
// обрыв соединения завершает сервис, рестарт — забота оркестратора.
func Run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	metrics.Register(nil)
	transportftx.RegisterMetrics(nil)

	// Трассировка.
	shutdownTracer, err := telemetry.InitTracer(ctx, telemetry.Config{
		Endpoint:       cfg.Telemetry.OTLPEndpoint,
		ServiceName:    cfg.ServiceName,
		ServiceVersion: cfg.ServiceVersion,
		Insecure:       cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer shutdownSafe(ctx, "telemetry", func() error { return shutdownTracer(context.Background()) }, log)

	// Kafka Producer.
	kafkaProd, err := kafka.NewProducer(ctx, kafka.Config{
		Brokers:        cfg.Kafka.Brokers,
		RequiredAcks:   cfg.Kafka.Acks,
		Timeout:        cfg.Kafka.Timeout,
		Compression:    cfg.Kafka.Compression,
		FlushFrequency: cfg.Kafka.FlushFrequency,
		FlushMessages:  cfg.Kafka.FlushMessages,
		Backoff:        cfg.Kafka.Backoff,
	}, log)
	if err != nil {
		return fmt.Errorf("kafka producer init: %w", err)
	}
	defer shutdownSafe(ctx, "kafka-producer", kafkaProd.Close, log)

	proc := processor.New(kafkaProd, processor.Topics{
		Trades:    cfg.Kafka.TradesTopic,
		OrderBook: cfg.Kafka.OrderBookTopic,
		Fills:     cfg.Kafka.FillsTopic,
	}, log)

	channels, err := cfg.FTX.ParseChannels()
	if err != nil {
		return fmt.Errorf("parse channels: %w", err)
	}

	// Подключение и логин под backoff: до первого успешного рукопожатия
	// сеть имеет право флапать.
	var sess *ftx.Ws
	if err := backoff.Execute(ctx, cfg.FTX.Backoff, log, func(ctx context.Context) error {
		s, e := ftx.Connect(ctx, ftx.Config{
			URL:           cfg.FTX.URL(),
			Key:           cfg.FTX.Key,
			Secret:        cfg.FTX.Secret,
			Subaccount:    cfg.FTX.Subaccount,
			PingInterval:  cfg.FTX.PingInterval,
			BufferSize:    cfg.FTX.BufferSize,
			ConfirmWindow: cfg.FTX.ConfirmWindow,
		}, log)
		if e != nil {
			transportftx.IncConnect("error")
			return e
		}
		transportftx.IncConnect("ok")
		sess = s
		return nil
	}); err != nil {
		return fmt.Errorf("ftx connect failed: %w", err)
	}
	defer shutdownSafe(ctx, "ftx-session", func() error { sess.Close(); return nil }, log)

	if err := transportftx.SubscribeWithMetrics(ctx, sess, channels); err != nil {
		return fmt.Errorf("ftx subscribe failed: %w", err)
	}
	log.WithContext(ctx).Info("subscribed to channels", zap.Int("count", len(channels)))

	readiness := func() error { return kafkaProd.Ping(ctx) }
	httpSrv := httpserver.NewServer(cfg.HTTP, readiness, log)

	g, ctx := errgroup.WithContext(ctx)

	// HTTP.
	g.Go(func() error { return httpSrv.Start(ctx) })

	// Основной pull-цикл WS → Kafka.
	g.Go(func() error {
		for {
			ev, err := transportftx.NextWithMetrics(ctx, sess)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return fmt.Errorf("ftx stream: %w", err)
			}
			if err := proc.Process(ctx, ev); err != nil {
				return fmt.Errorf("process event: %w", err)
			}
		}
	})

	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) {
			log.WithContext(ctx).Info("collector stopped by context")
			return nil
		}
		return err
	}
	return nil
}

// shutdownSafe оборачивает вызов Close()/Shutdown() с логированием.
func shutdownSafe(ctx context.Context, name string, fn func() error, log *logger.Logger) {
	log.WithContext(ctx).Info(fmt.Sprintf("%s: shutting down", name))
	if err := fn(); err != nil {
		log.WithContext(ctx).Error(fmt.Sprintf("%s shutdown error", name), zap.Error(err))
	} else {
		log.WithContext(ctx).Info(fmt.Sprintf("%s: shutdown complete", name))
	}
}
