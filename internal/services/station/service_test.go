package station

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Nazarious-ucu/nmc-weather-station/internal/models"
	"github.com/Nazarious-ucu/nmc-weather-station/internal/services/nmc"
)

var cst = time.FixedZone("CST", 8*60*60)

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) Fetch(ctx context.Context, stationID string) ([]byte, error) {
	args := m.Called(ctx, stationID)
	body, ok := args.Get(0).([]byte)
	if !ok {
		return nil, args.Error(1)
	}
	return body, args.Error(1)
}

func fixture(t *testing.T) []byte {
	t.Helper()
	body, err := os.ReadFile(filepath.Join("..", "nmc", "testdata", "weather_54511.json"))
	require.NoError(t, err)
	return body
}

func newTestService(f fetcher, opts ...Option) *Service {
	clock := func() time.Time { return time.Date(2024, 3, 10, 15, 0, 0, 0, cst) }
	opts = append([]Option{WithClock(clock)}, opts...)
	return NewService(
		Station{ID: "54511", Name: "Beijing"},
		f,
		nmc.NewParser(cst),
		nmc.NewForecastBuilder(nmc.MaxForecastDays, cst),
		zerolog.Nop(),
		opts...,
	)
}

func TestService_Update(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		f := &mockFetcher{}
		f.On("Fetch", mock.Anything, "54511").Return(fixture(t), nil).Once()
		t.Cleanup(func() { f.AssertExpectations(t) })

		state, err := newTestService(f).Update(context.Background())
		require.NoError(t, err)

		assert.Equal(t, "54511", state.Snapshot.StationID)
		assert.Equal(t, "Beijing", state.Snapshot.StationName)
		assert.Equal(t, models.ConditionCloudy, state.Snapshot.Condition)
		assert.True(t, time.Date(2024, 3, 10, 15, 0, 0, 0, cst).Equal(state.UpdatedAt))

		require.Len(t, state.Forecast, 7)
		want := []models.Condition{
			models.ConditionCloudy,
			models.ConditionSunny,
			models.ConditionRainy,
			models.ConditionPouring,
			models.ConditionCloudy,
			models.ConditionSnowyRainy,
			models.ConditionSunny,
		}
		for i, e := range state.Forecast {
			assert.Equal(t, want[i], e.Condition, "day %d", i)
		}
		assert.Equal(t, models.ConditionLightningRainy, state.Forecast[3].NightCondition)
	})

	t.Run("TransportError", func(t *testing.T) {
		f := &mockFetcher{}
		f.On("Fetch", mock.Anything, "54511").
			Return(nil, &nmc.TransportError{URL: "http://nmc.test", StatusCode: 503}).Once()
		t.Cleanup(func() { f.AssertExpectations(t) })

		state, err := newTestService(f).Update(context.Background())
		require.Error(t, err)
		assert.True(t, nmc.IsTransport(err))
		assert.Equal(t, models.State{}, state)
	})

	t.Run("MalformedPayload", func(t *testing.T) {
		f := &mockFetcher{}
		f.On("Fetch", mock.Anything, "54511").Return([]byte(`{"data":{"real":{}}}`), nil).Once()
		t.Cleanup(func() { f.AssertExpectations(t) })

		state, err := newTestService(f).Update(context.Background())
		require.Error(t, err)
		assert.True(t, nmc.IsMalformed(err))
		assert.Equal(t, models.State{}, state)
	})

	t.Run("UnmappedCondition", func(t *testing.T) {
		body := []byte(`{"data":{
			"real":{"publish_time":"2024-03-10 14:00","weather":{"temperature":1,"info":"晴间多云转阵雨"}},
			"predict":{"detail":[]}
		}}`)
		f := &mockFetcher{}
		f.On("Fetch", mock.Anything, "54511").Return(body, nil).Once()
		t.Cleanup(func() { f.AssertExpectations(t) })

		var unmapped []string
		svc := newTestService(f, WithUnmappedHook(func(raw string) { unmapped = append(unmapped, raw) }))

		state, err := svc.Update(context.Background())
		require.NoError(t, err)
		assert.Equal(t, models.ConditionExceptional, state.Snapshot.Condition)
		assert.Equal(t, []string{"晴间多云转阵雨"}, unmapped)
		assert.Empty(t, state.Forecast)
	})

	t.Run("ForecastMisaligned", func(t *testing.T) {
		body := []byte(`{"data":{
			"real":{"publish_time":"2024-03-10 14:00","weather":{"temperature":1,"info":"晴"}},
			"predict":{"detail":[{"date":"2024-03-10","day":{"weather":{"info":"晴"}}}]},
			"tempchart":[]
		}}`)
		f := &mockFetcher{}
		f.On("Fetch", mock.Anything, "54511").Return(body, nil).Once()

		_, err := newTestService(f).Update(context.Background())
		require.Error(t, err)
		assert.True(t, nmc.IsMalformed(err))
		assert.False(t, errors.Is(err, context.Canceled))
	})
}
