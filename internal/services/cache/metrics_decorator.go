package cache

import (
	"context"
	"time"

	"github.com/Nazarious-ucu/nmc-weather-station/internal/services/metrics"
)

type cache[T any] interface {
	Set(ctx context.Context, key string, value T) error
}

type metricsCollector interface {
	ObserveLatency(operation string, duration time.Duration)
	IncrementCounter(metric string, labels ...string)
}

// MetricsDecorator times every cache call and counts its outcome.
type MetricsDecorator[T any] struct {
	next      cache[T]
	collector metricsCollector
}

func NewMetricsDecorator[T any](next cache[T], collector metricsCollector) *MetricsDecorator[T] {
	return &MetricsDecorator[T]{next: next, collector: collector}
}

func (m *MetricsDecorator[T]) Set(ctx context.Context, key string, value T) error {
	start := time.Now()
	err := m.next.Set(ctx, key, value)
	m.collector.ObserveLatency("cache_set", time.Since(start))
	m.collector.IncrementCounter("cache_set", result(err))
	return err
}

func result(err error) string {
	if err != nil {
		return metrics.ResultFailure
	}
	return metrics.ResultSuccess
}
