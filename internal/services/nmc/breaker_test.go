package nmc_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/Nazarious-ucu/nmc-weather-station/internal/services/nmc"
)

var breakerCfg = nmc.BreakerConfig{
	TimeInterval: 30 * time.Second,
	TimeTimeOut:  15 * time.Second,
	RepeatNumber: 5,
}

type mockWrapped struct {
	mock.Mock
}

func (m *mockWrapped) Fetch(ctx context.Context, stationID string) ([]byte, error) {
	args := m.Called(ctx, stationID)
	data, ok := args.Get(0).([]byte)
	if !ok {
		return nil, args.Error(1)
	}
	return data, args.Error(1)
}

const (
	breakerName = "NMC"
	station     = "54511"
)

func TestBreakerClient_Success(t *testing.T) {
	wrapped := new(mockWrapped)
	expected := []byte(`{"data":{}}`)

	wrapped.
		On("Fetch", mock.Anything, station).
		Return(expected, nil).
		Once()

	bc := nmc.NewBreakerClient(breakerName, breakerCfg, wrapped)

	data, err := bc.Fetch(context.Background(), station)
	assert.NoError(t, err)
	assert.Equal(t, expected, data)
	assert.Equal(t, "closed", bc.State())

	wrapped.AssertExpectations(t)
	wrapped.AssertNumberOfCalls(t, "Fetch", 1)
}

func TestBreakerClient_UnderlyingErrorPassesThrough(t *testing.T) {
	wrapped := new(mockWrapped)
	underlyingErr := &nmc.TransportError{URL: "http://nmc.test", StatusCode: 502}

	wrapped.
		On("Fetch", mock.Anything, station).
		Return(nil, underlyingErr).
		Once()

	bc := nmc.NewBreakerClient(breakerName, breakerCfg, wrapped)

	data, err := bc.Fetch(context.Background(), station)
	assert.Error(t, err)
	assert.Empty(t, data)
	assert.True(t, errors.Is(err, underlyingErr))

	wrapped.AssertExpectations(t)
}

func TestBreakerClient_TripCircuitAfterFiveFailures(t *testing.T) {
	wrapped := new(mockWrapped)
	underlyingErr := &nmc.TransportError{URL: "http://nmc.test", Err: errors.New("timeout")}

	wrapped.
		On("Fetch", mock.Anything, station).
		Return(nil, underlyingErr).
		Times(5)

	bc := nmc.NewBreakerClient(breakerName, breakerCfg, wrapped)

	for i := 1; i <= 5; i++ {
		_, err := bc.Fetch(context.Background(), station)
		assert.Error(t, err, "call #%d should error before trip", i)
		assert.Contains(t, err.Error(), "timeout")
	}

	_, err := bc.Fetch(context.Background(), station)
	assert.Error(t, err)
	assert.True(t, nmc.IsTransport(err))
	assert.True(t,
		strings.Contains(err.Error(), "circuit breaker is open"),
		"6th call should return open-circuit error",
	)
	assert.Equal(t, "open", bc.State())

	wrapped.AssertExpectations(t)
	wrapped.AssertNumberOfCalls(t, "Fetch", 5)
}
