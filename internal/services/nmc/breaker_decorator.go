package nmc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
)

type fetcher interface {
	Fetch(ctx context.Context, stationID string) ([]byte, error)
}

type BreakerConfig struct {
	TimeInterval time.Duration
	TimeTimeOut  time.Duration
	RepeatNumber uint32
}

// BreakerClient stops calling NMC after RepeatNumber consecutive transport failures.
type BreakerClient struct {
	name    string
	cb      *gobreaker.CircuitBreaker
	wrapped fetcher
}

func NewBreakerClient(name string, cfg BreakerConfig, wrapped fetcher) *BreakerClient {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    cfg.TimeInterval,
		Timeout:     cfg.TimeTimeOut,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.RepeatNumber
		},
	}
	return &BreakerClient{
		name:    name,
		cb:      gobreaker.NewCircuitBreaker(settings),
		wrapped: wrapped,
	}
}

func (b *BreakerClient) Fetch(ctx context.Context, stationID string) ([]byte, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return b.wrapped.Fetch(ctx, stationID)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &TransportError{URL: b.name, Err: fmt.Errorf("%s unavailable: %w", b.name, err)}
		}
		return nil, err
	}
	body, ok := result.([]byte)
	if !ok {
		return nil, &TransportError{URL: b.name, Err: fmt.Errorf("%s returned unexpected result", b.name)}
	}
	return body, nil
}

// State reports the breaker state, e.g. "closed" or "open".
func (b *BreakerClient) State() string {
	return b.cb.State().String()
}
