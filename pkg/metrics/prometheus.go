package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain repository.Metrics using Prometheus.
type Recorder struct {
	queries     *prometheus.CounterVec
	confidence  *prometheus.HistogramVec
	eventsSent  *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	lastPrice   *prometheus.GaugeVec
	latency     *prometheus.HistogramVec
}

// New registers the recorder's collectors on the default registry.
// Call it once per process.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers on reg; tests pass a fresh prometheus.NewRegistry().
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		queries: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cryptochat_queries_total",
				Help: "Classified chat messages by intent",
			},
			[]string{"intent"},
		),
		confidence: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cryptochat_query_confidence",
				Help:    "Classifier confidence by intent",
				Buckets: []float64{0.1, 0.3, 0.5, 0.7, 0.8, 0.9, 1},
			},
			[]string{"intent"},
		),
		eventsSent: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cryptochat_events_sent_total",
				Help: "Chat events delivered to the analytics backend",
			},
			[]string{"backend", "intent"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cryptochat_errors_total",
				Help: "Errors by kind",
			},
			[]string{"type"},
		),
		lastPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cryptochat_last_price_usd",
				Help: "Last fetched USD price per coin symbol",
			},
			[]string{"symbol"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cryptochat_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordQuery(intent string, confidence float64) {
	r.queries.WithLabelValues(intent).Inc()
	r.confidence.WithLabelValues(intent).Observe(confidence)
}

func (r *Recorder) RecordEventSent(backend, intent string) {
	r.eventsSent.WithLabelValues(backend, intent).Inc()
}

func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordQuery(string, float64)     {}
func (Nop) RecordEventSent(string, string)  {}
func (Nop) RecordError(string)              {}
func (Nop) RecordLastPrice(string, float64) {}
func (Nop) RecordLatency(string, float64)   {}
