package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	ChatLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cryptochat",
			Subsystem: "chat",
			Name:      "latency_seconds",
			Help:      "Latency of chat endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	ChatErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cryptochat",
			Subsystem: "chat",
			Name:      "errors_total",
			Help:      "Errors by chat endpoint",
		},
		[]string{"endpoint"},
	)

	WebSocketSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "cryptochat",
			Subsystem: "chat",
			Name:      "websocket_sessions",
			Help:      "Open chat websocket connections",
		},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(ChatLatency, ChatErrors, WebSocketSessions)
	})
}
