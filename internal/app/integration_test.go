//go:build integration

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	grpcHandler "github.com/Nazarious-ucu/nmc-weather-station/internal/handlers/grpc"
	metricsSvc "github.com/Nazarious-ucu/nmc-weather-station/internal/services/metrics"
)

func freePort(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return fmt.Sprint(l.Addr().(*net.TCPAddr).Port)
}

func TestApp_StartEndToEnd(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	nmcSrv := fakeNMC(t, &status)

	cfg := testConfig(t, nmcSrv.URL)
	cfg.Server.HTTPPort = freePort(t)
	cfg.Server.GrpcPort = freePort(t)

	a := New(cfg, zerolog.Nop(), metricsSvc.NewMetrics("nmc_station"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Start(ctx) }()

	base := "http://" + cfg.HTTPAddress()
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/weather")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond, "initial update was not published")

	resp, err := http.Get(base + "/weather/forecast?days=3")
	require.NoError(t, err)
	var forecast struct {
		StationID string            `json:"station_id"`
		Forecast  []json.RawMessage `json:"forecast"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&forecast))
	_ = resp.Body.Close()
	assert.Equal(t, "54511", forecast.StationID)

	conn, err := grpc.NewClient(cfg.GrpcAddress(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		r, err := healthpb.NewHealthClient(conn).Check(context.Background(),
			&healthpb.HealthCheckRequest{Service: grpcHandler.ServiceName})
		return err == nil && r.GetStatus() == healthpb.HealthCheckResponse_SERVING
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("application did not shut down")
	}
}
