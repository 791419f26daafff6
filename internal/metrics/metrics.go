package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// EventsTotal — общее число событий, вытянутых из WS-сессии.
	EventsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ftxstream",
		Subsystem: "ws",
		Name:      "events_total",
		Help:      "Total number of events pulled from the WebSocket session",
	})

	// SerializeErrors — число ошибок сериализации событий перед публикацией.
	SerializeErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ftxstream",
		Subsystem: "pipeline",
		Name:      "serialize_errors_total",
		Help:      "Total number of event serialization errors",
	})

	// PublishErrors — число ошибок при публикации сообщений в Kafka.
	PublishErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ftxstream",
		Subsystem: "kafka",
		Name:      "publish_errors_total",
		Help:      "Total number of errors when publishing to Kafka",
	})

	// PublishLatency — гистограмма задержек от получения события до публикации.
	PublishLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ftxstream",
		Subsystem: "pipeline",
		Name:      "publish_latency_seconds",
		Help:      "Latency from pulling a WS event to publishing to Kafka (seconds)",
		Buckets:   prometheus.DefBuckets,
	})
)

// Register регистрирует все метрики в заданном реестре.
// Можно вызвать с nil, чтобы зарегистрировать в DefaultRegisterer.
func Register(registerers ...prometheus.Registerer) {
	once.Do(func() {
		var reg prometheus.Registerer
		if len(registerers) > 0 && registerers[0] != nil {
			reg = registerers[0]
		} else {
			reg = prometheus.DefaultRegisterer
		}
		reg.MustRegister(
			EventsTotal,
			SerializeErrors,
			PublishErrors,
			PublishLatency,
		)
	})
}
