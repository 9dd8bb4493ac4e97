package producers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/wagslane/go-rabbitmq"

	"github.com/Nazarious-ucu/nmc-weather-station/internal/models"
	"github.com/Nazarious-ucu/nmc-weather-station/pkg/messaging"
)

const dateLayout = "2006-01-02"

type publisher interface {
	PublishWithContext(
		ctx context.Context,
		data []byte,
		routingKeys []string,
		optionFuncs ...func(*rabbitmq.PublishOptions),
	) error
}

// Producer announces published station states on RabbitMQ.
type Producer struct {
	prod publisher
	log  zerolog.Logger
}

func NewProducer(prod publisher, logger zerolog.Logger) *Producer {
	return &Producer{
		prod: prod,
		log:  logger.With().Str("component", "Producer").Logger(),
	}
}

func (p *Producer) Name() string { return "rabbitmq" }

func (p *Producer) publish(ctx context.Context, routingKey []string, body []byte) error {
	if err := p.prod.PublishWithContext(
		ctx,
		body,
		routingKey,
		rabbitmq.WithPublishOptionsContentType("application/json"),
		rabbitmq.WithPublishOptionsPersistentDelivery,
		rabbitmq.WithPublishOptionsExchange(messaging.ExchangeName),
	); err != nil {
		p.log.Error().Err(err).Strs("routing_key", routingKey).Msg("failed to publish message")
		return err
	}
	p.log.Debug().Strs("routing_key", routingKey).Int("size", len(body)).Msg("message published")
	return nil
}

// Publish sends a StationUpdatedEvent built from state.
func (p *Producer) Publish(ctx context.Context, state models.State) error {
	body, err := json.Marshal(newStationUpdatedEvent(state))
	if err != nil {
		p.log.Error().Err(err).Msg("failed to marshal station event")
		return fmt.Errorf("marshal station event: %w", err)
	}

	return p.publish(ctx, []string{messaging.StationUpdatedRoutingKey}, body)
}

func newStationUpdatedEvent(state models.State) messaging.StationUpdatedEvent {
	s := state.Snapshot
	event := messaging.StationUpdatedEvent{
		StationID:   s.StationID,
		StationName: s.StationName,
		Condition:   string(s.Condition),
		Temperature: s.Temperature,
		Humidity:    s.Humidity,
		AQI:         s.AQI,
		Alert:       s.Alert,
		PublishedAt: s.PublishedAt,
		UpdatedAt:   state.UpdatedAt,
		Forecast:    make([]messaging.Forecast, 0, len(state.Forecast)),
	}
	for _, e := range state.Forecast {
		event.Forecast = append(event.Forecast, messaging.Forecast{
			Date:      e.Date.Format(dateLayout),
			Condition: string(e.Condition),
			TempHigh:  e.TempHigh,
			TempLow:   e.TempLow,
		})
	}
	return event
}
