package metrics

import (
	"fmt"
	"net/http"
	"regexp"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	grpcProm "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
)

const divisor = 100

const (
	// MaxUnmappedLabels bounds the distinct raw values kept as labels of unmapped_conditions_total.
	MaxUnmappedLabels = 50
	// UnmappedOther is the label used once MaxUnmappedLabels is reached.
	UnmappedOther = "other"
)

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Metrics holds Prometheus metric vectors for the station pipeline.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP server metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestsInFlight prometheus.Gauge
	HTTPRequestDuration  *prometheus.HistogramVec

	// Update cycle metrics
	UpdatesTotal        *prometheus.CounterVec // by trigger, result
	UpdateAttemptsTotal *prometheus.CounterVec // by result, one per fetch attempt incl. retries
	UpdateDuration      prometheus.Histogram
	LastSuccess         prometheus.Gauge
	UnmappedConditions  *prometheus.CounterVec

	// Sink metrics
	SinkPublishTotal *prometheus.CounterVec // by sink, result

	ServiceUptime   prometheus.Gauge
	TechnicalErrors *prometheus.CounterVec

	unmappedMu   sync.Mutex
	unmappedSeen map[string]struct{}
}

// NewMetrics constructs the metrics and registers them in a private registry.
func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry:     reg,
		unmappedSeen: make(map[string]struct{}),

		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests received",
			},
			[]string{"method", "endpoint", "status_class"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "In-flight HTTP requests",
			},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Histogram of HTTP request latencies",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		UpdatesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "updates_total",
				Help:      "Update cycles by trigger and outcome",
			},
			[]string{"trigger", "result"},
		),
		UpdateAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "update_attempts_total",
				Help:      "Fetch attempts including retries",
			},
			[]string{"result"},
		),
		UpdateDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "update_duration_seconds",
				Help:      "Duration of update cycles including backoff",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
			},
		),
		LastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_success_timestamp_seconds",
				Help:      "Unix time of the last published state",
			},
		),
		UnmappedConditions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "unmapped_conditions_total",
				Help:      "Raw condition strings missing from the translation table",
			},
			[]string{"raw"},
		),

		SinkPublishTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sink_publish_total",
				Help:      "State deliveries to sinks",
			},
			[]string{"sink", "result"},
		),

		ServiceUptime: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "service_start_timestamp_seconds",
				Help:      "Unix time the service started",
			},
		),
		TechnicalErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "technical_errors_total",
				Help:      "Total technical errors",
			},
			[]string{"error_type", "severity"},
		),
	}

	// enable grpc handling time histograms before the server metrics are registered
	grpcProm.EnableHandlingTimeHistogram()

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestsInFlight,
		m.HTTPRequestDuration,
		m.UpdatesTotal,
		m.UpdateAttemptsTotal,
		m.UpdateDuration,
		m.LastSuccess,
		m.UnmappedConditions,
		m.SinkPublishTotal,
		m.ServiceUptime,
		m.TechnicalErrors,
		grpcProm.DefaultServerMetrics,
		collectors.NewGoCollector(
			collectors.WithGoCollectorRuntimeMetrics(
				collectors.GoRuntimeMetricsRule{Matcher: regexp.MustCompile("/sched/latencies:seconds")},
			),
		),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m.ServiceUptime.SetToCurrentTime()

	return m
}

// Registry exposes the private registry, mostly for collectors owned by other packages.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// HTTPMiddleware returns a Gin middleware to instrument HTTP endpoints.
func (m *Metrics) HTTPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.HTTPRequestsInFlight.Inc()
		c.Next()
		m.HTTPRequestsInFlight.Dec()

		d := time.Since(start)
		statusClass := getStatusClass(c.Writer.Status())

		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, c.FullPath(), statusClass).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, c.FullPath()).Observe(d.Seconds())
	}
}

// UnaryInterceptor returns a gRPC UnaryServerInterceptor for metrics.
func (m *Metrics) UnaryInterceptor() grpc.UnaryServerInterceptor {
	return grpcProm.UnaryServerInterceptor
}

// StreamInterceptor returns a gRPC StreamServerInterceptor for metrics.
func (m *Metrics) StreamInterceptor() grpc.StreamServerInterceptor {
	return grpcProm.StreamServerInterceptor
}

// RecordUpdate counts one finished update cycle.
func (m *Metrics) RecordUpdate(trigger string, d time.Duration, err error) {
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	} else {
		m.LastSuccess.SetToCurrentTime()
	}
	m.UpdatesTotal.WithLabelValues(trigger, result).Inc()
	m.UpdateDuration.Observe(d.Seconds())
}

// RecordAttempt counts a single fetch attempt inside a cycle.
func (m *Metrics) RecordAttempt(err error) {
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}
	m.UpdateAttemptsTotal.WithLabelValues(result).Inc()
}

// RecordSink logs a sink delivery result.
func (m *Metrics) RecordSink(sink string, err error) {
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}
	m.SinkPublishTotal.WithLabelValues(sink, result).Inc()
}

// RecordUnmapped counts a raw condition missing from the table.
// Values past the first MaxUnmappedLabels distinct ones are counted as UnmappedOther.
func (m *Metrics) RecordUnmapped(raw string) {
	m.UnmappedConditions.WithLabelValues(m.unmappedLabel(raw)).Inc()
}

func (m *Metrics) unmappedLabel(raw string) string {
	m.unmappedMu.Lock()
	defer m.unmappedMu.Unlock()

	if _, ok := m.unmappedSeen[raw]; ok {
		return raw
	}
	if len(m.unmappedSeen) >= MaxUnmappedLabels {
		return UnmappedOther
	}
	m.unmappedSeen[raw] = struct{}{}
	return raw
}

func getStatusClass(code int) string {
	return fmt.Sprintf("%dxx", code/divisor)
}
