package producers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wagslane/go-rabbitmq"

	"github.com/Nazarious-ucu/nmc-weather-station/internal/models"
	"github.com/Nazarious-ucu/nmc-weather-station/pkg/messaging"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishWithContext(
	ctx context.Context,
	data []byte,
	routingKeys []string,
	optionFuncs ...func(*rabbitmq.PublishOptions),
) error {
	return m.Called(ctx, data, routingKeys, optionFuncs).Error(0)
}

func f(v float64) *float64 { return &v }

func TestProducer_Publish(t *testing.T) {
	cst := time.FixedZone("CST", 8*60*60)
	state := models.State{
		Snapshot: models.CurrentSnapshot{
			StationID:   "54511",
			StationName: "Beijing",
			Condition:   models.ConditionCloudy,
			Temperature: 12.3,
			Humidity:    f(38),
			Alert:       "大风蓝色预警",
			PublishedAt: time.Date(2024, 3, 10, 14, 5, 0, 0, cst),
		},
		Forecast: []models.ForecastEntry{
			{Date: time.Date(2024, 3, 10, 0, 0, 0, 0, cst), Condition: models.ConditionCloudy, TempHigh: f(15), TempLow: f(3)},
			{Date: time.Date(2024, 3, 11, 0, 0, 0, 0, cst), Condition: models.ConditionSunny, TempLow: f(4)},
		},
		UpdatedAt: time.Date(2024, 3, 10, 14, 10, 0, 0, cst),
	}

	var (
		event messaging.StationUpdatedEvent
		opts  rabbitmq.PublishOptions
	)
	pub := &mockPublisher{}
	pub.On("PublishWithContext", mock.Anything, mock.Anything, []string{messaging.StationUpdatedRoutingKey}, mock.Anything).
		Run(func(args mock.Arguments) {
			require.NoError(t, json.Unmarshal(args.Get(1).([]byte), &event))
			for _, fn := range args.Get(3).([]func(*rabbitmq.PublishOptions)) {
				fn(&opts)
			}
		}).
		Return(nil).Once()
	t.Cleanup(func() { pub.AssertExpectations(t) })

	p := NewProducer(pub, zerolog.Nop())
	assert.Equal(t, "rabbitmq", p.Name())
	require.NoError(t, p.Publish(context.Background(), state))

	assert.Equal(t, "54511", event.StationID)
	assert.Equal(t, "cloudy", event.Condition)
	assert.InDelta(t, 12.3, event.Temperature, 1e-9)
	assert.Equal(t, "大风蓝色预警", event.Alert)
	require.Len(t, event.Forecast, 2)
	assert.Equal(t, "2024-03-10", event.Forecast[0].Date)
	assert.Nil(t, event.Forecast[1].TempHigh)

	assert.Equal(t, "application/json", opts.ContentType)
	assert.Equal(t, messaging.ExchangeName, opts.Exchange)
	assert.Equal(t, uint8(rabbitmq.Persistent), opts.DeliveryMode)
}

func TestProducer_PublishError(t *testing.T) {
	pub := &mockPublisher{}
	pub.On("PublishWithContext", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("channel closed")).Once()

	p := NewProducer(pub, zerolog.Nop())
	err := p.Publish(context.Background(), models.State{})
	assert.EqualError(t, err, "channel closed")
}
