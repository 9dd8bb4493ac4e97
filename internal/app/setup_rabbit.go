package app

import (
	"github.com/wagslane/go-rabbitmq"

	"github.com/Nazarious-ucu/nmc-weather-station/pkg/messaging"
)

func (a *App) setupConn() (*rabbitmq.Conn, error) {
	conn, err := rabbitmq.NewConn(
		a.cfg.RabbitMQ.Address(),
		rabbitmq.WithConnectionOptionsLogging,
	)
	if err != nil {
		a.l.Error().Err(err).Msg("failed to connect to RabbitMQ")
		return nil, err
	}

	a.l.Info().Msg("connected to RabbitMQ")
	return conn, nil
}

// setupPublisher declares the durable station exchange and returns a publisher on it.
func (a *App) setupPublisher(conn *rabbitmq.Conn) (*rabbitmq.Publisher, error) {
	publisher, err := rabbitmq.NewPublisher(
		conn,
		rabbitmq.WithPublisherOptionsExchangeName(messaging.ExchangeName),
		rabbitmq.WithPublisherOptionsExchangeKind("topic"),
		rabbitmq.WithPublisherOptionsExchangeDeclare,
		rabbitmq.WithPublisherOptionsExchangeDurable,
		rabbitmq.WithPublisherOptionsLogging,
	)
	if err != nil {
		return nil, err
	}

	publisher.NotifyReturn(func(r rabbitmq.Return) {
		a.l.Warn().
			Str("routing_key", r.RoutingKey).
			Uint16("reply_code", r.ReplyCode).
			Msg("message returned from server")
	})

	return publisher, nil
}
