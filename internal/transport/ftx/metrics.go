// ftx-stream/internal/transport/ftx/metrics.go
package ftx

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once       sync.Once
	wsConnects *prometheus.CounterVec
	wsErrors   *prometheus.CounterVec
	wsEvents   *prometheus.CounterVec
	wsCommands *prometheus.CounterVec
)

func RegisterMetrics(r prometheus.Registerer) {
	once.Do(func() {
		if r == nil {
			r = prometheus.DefaultRegisterer
		}
		wsConnects = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ftxstream", Subsystem: "ftx", Name: "connects_total",
			Help: "Total WebSocket connection attempts",
		}, []string{"status"})

		wsErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ftxstream", Subsystem: "ftx", Name: "errors_total",
			Help: "Total categorized WebSocket errors",
		}, []string{"type"})

		wsEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ftxstream", Subsystem: "ftx", Name: "events_total",
			Help: "Total events pulled from the FTX WS session",
		}, []string{"kind"})

		wsCommands = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ftxstream", Subsystem: "ftx", Name: "commands_total",
			Help: "Total subscription commands sent to FTX",
		}, []string{"op", "status"})

		collectors := []prometheus.Collector{wsConnects, wsErrors, wsEvents, wsCommands}
		for _, c := range collectors {
			_ = r.Register(c)
		}
	})
}

func IncConnect(status string)     { wsConnects.WithLabelValues(status).Inc() }
func IncError(errType string)      { wsErrors.WithLabelValues(errType).Inc() }
func IncEvent(kind string)         { wsEvents.WithLabelValues(kind).Inc() }
func IncCommand(op, status string) { wsCommands.WithLabelValues(op, status).Inc() }
