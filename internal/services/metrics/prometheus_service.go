package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PromCollector records latency and outcome of sink operations.
type PromCollector struct {
	hist *prometheus.HistogramVec
	cnt  *prometheus.CounterVec
}

func NewPromCollector(namespace string, reg prometheus.Registerer) *PromCollector {
	hist := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sink_operation_duration_seconds",
			Help:      "Sink operation latencies",
		},
		[]string{"operation"},
	)
	cnt := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_operations_total",
			Help:      "Sink operation counts",
		},
		[]string{"operation", "result"},
	)
	reg.MustRegister(hist, cnt)
	return &PromCollector{hist: hist, cnt: cnt}
}

func (p *PromCollector) ObserveLatency(op string, d time.Duration) {
	p.hist.WithLabelValues(op).Observe(d.Seconds())
}

func (p *PromCollector) IncrementCounter(metric string, labels ...string) {
	p.cnt.WithLabelValues(append([]string{metric}, labels...)...).Inc()
}
