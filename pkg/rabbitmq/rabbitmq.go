package rabbitmq

import (
	"context"
	"fmt"
	"time"

	"endpoint-monitor/config"

	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const (
	dialAttempts = 5
	dialBackoff  = 2 * time.Second
)

func NewConnection(ctx context.Context, rmqCfg *config.RabbitMQConfig, log *zerolog.Logger) (*amqp091.Connection, error) {
	var err error
	for i := range dialAttempts {
		var conn *amqp091.Connection
		conn, err = amqp091.Dial(rmqCfg.BrokerLink)
		if err == nil {
			return conn, nil
		}

		log.Warn().Err(err).Int("attempt", i+1).Msg("rabbitmq dial failed")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(dialBackoff):
		}
	}
	return nil, fmt.Errorf("connect to rabbitmq after %d attempts: %w", dialAttempts, err)
}

// SetupTopology declares the durable exchange and queue notification events
// are routed to.
func SetupTopology(conn *amqp091.Connection, rmqCfg *config.RabbitMQConfig) error {
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(
		rmqCfg.ExchangeName,
		rmqCfg.ExchangeType,
		true, false, false, false, nil,
	); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(
		rmqCfg.QueueName,
		true, false, false, false, nil,
	); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	if err = ch.QueueBind(
		rmqCfg.QueueName,
		rmqCfg.RoutingKey,
		rmqCfg.ExchangeName,
		false, nil,
	); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}
