package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"

	"github.com/Nazarious-ucu/nmc-weather-station/internal/models"
)

var now = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func newChecker() *HealthChecker {
	h := NewHealthChecker(90*time.Minute, zerolog.Nop())
	h.now = func() time.Time { return now }
	return h
}

func check(t *testing.T, h *HealthChecker, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := h.Server().Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
	require.NoError(t, err)
	return resp.GetStatus()
}

func TestHealthChecker_NotServingBeforeFirstState(t *testing.T) {
	h := newChecker()
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, h, ""))
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, h, ServiceName))
	assert.Equal(t, "grpc_health", h.Name())
}

func TestHealthChecker_Publish(t *testing.T) {
	tests := []struct {
		name    string
		updated time.Time
		want    healthpb.HealthCheckResponse_ServingStatus
	}{
		{"fresh", now.Add(-30 * time.Minute), healthpb.HealthCheckResponse_SERVING},
		{"stale", now.Add(-2 * time.Hour), healthpb.HealthCheckResponse_NOT_SERVING},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newChecker()
			require.NoError(t, h.Publish(context.Background(), models.State{UpdatedAt: tt.updated}))
			assert.Equal(t, tt.want, check(t, h, ""))
			assert.Equal(t, tt.want, check(t, h, ServiceName))
		})
	}
}

func TestHealthChecker_BecomesStale(t *testing.T) {
	h := newChecker()
	require.NoError(t, h.Publish(context.Background(), models.State{UpdatedAt: now}))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, h, ServiceName))

	h.now = func() time.Time { return now.Add(91 * time.Minute) }
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, h.Refresh())
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, h, ServiceName))
}

func TestHealthChecker_RunOverGRPC(t *testing.T) {
	h := NewHealthChecker(time.Hour, zerolog.Nop())

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, h.Server())
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx, 10*time.Millisecond)
		close(done)
	}()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	client := healthpb.NewHealthClient(conn)

	require.NoError(t, h.Publish(context.Background(), models.State{UpdatedAt: time.Now()}))

	require.Eventually(t, func() bool {
		resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
		return err == nil && resp.GetStatus() == healthpb.HealthCheckResponse_SERVING
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done

	resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())
}
