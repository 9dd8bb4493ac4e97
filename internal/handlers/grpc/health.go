package grpc

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/Nazarious-ucu/nmc-weather-station/internal/models"
)

// ServiceName is the health service name clients can probe besides "".
const ServiceName = "nmc.weather.Station"

// HealthChecker reports SERVING while the last published state is younger than maxAge.
// It receives states as a scheduler sink and re-evaluates staleness in Run.
type HealthChecker struct {
	server *health.Server
	maxAge time.Duration
	now    func() time.Time
	logger zerolog.Logger

	mu        sync.Mutex
	updatedAt time.Time
	last      healthpb.HealthCheckResponse_ServingStatus
}

func NewHealthChecker(maxAge time.Duration, logger zerolog.Logger) *HealthChecker {
	h := &HealthChecker{
		server: health.NewServer(),
		maxAge: maxAge,
		now:    time.Now,
		logger: logger.With().Str("component", "HealthChecker").Logger(),
		last:   healthpb.HealthCheckResponse_UNKNOWN,
	}
	h.Refresh()
	return h
}

func (h *HealthChecker) Server() healthpb.HealthServer {
	return h.server
}

func (h *HealthChecker) Name() string { return "grpc_health" }

// Publish records the update time of a freshly published state.
func (h *HealthChecker) Publish(_ context.Context, state models.State) error {
	h.mu.Lock()
	h.updatedAt = state.UpdatedAt
	h.mu.Unlock()

	h.Refresh()
	return nil
}

// Refresh recomputes and publishes the serving status.
func (h *HealthChecker) Refresh() healthpb.HealthCheckResponse_ServingStatus {
	h.mu.Lock()
	defer h.mu.Unlock()

	status := healthpb.HealthCheckResponse_NOT_SERVING
	if !h.updatedAt.IsZero() && h.now().Sub(h.updatedAt) < h.maxAge {
		status = healthpb.HealthCheckResponse_SERVING
	}

	if status != h.last {
		h.logger.Info().Str("status", status.String()).Msg("health status changed")
		h.last = status
	}
	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(ServiceName, status)
	return status
}

// Run refreshes the status every interval until ctx is done, then marks everything NOT_SERVING.
func (h *HealthChecker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.server.Shutdown()
			return
		case <-ticker.C:
			h.Refresh()
		}
	}
}
