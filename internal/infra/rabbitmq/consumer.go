package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/streadway/amqp"
)

type Consumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
}

// NewConsumer declares a durable queue bound to exchange with each of the
// given binding keys.
func NewConsumer(amqpURL, exchange, queue string, bindings ...string) (*Consumer, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	closeAll := func() {
		channel.Close()
		conn.Close()
	}

	if err := declareExchange(channel, exchange); err != nil {
		closeAll()
		return nil, err
	}
	if _, err := channel.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		closeAll()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}
	for _, key := range bindings {
		if err := channel.QueueBind(queue, key, exchange, false, nil); err != nil {
			closeAll()
			return nil, fmt.Errorf("failed to bind queue to %s: %w", key, err)
		}
	}
	if err := channel.Qos(10, 0, false); err != nil {
		closeAll()
		return nil, fmt.Errorf("failed to set qos: %w", err)
	}

	return &Consumer{conn: conn, channel: channel, queue: queue}, nil
}

// Consume hands every delivery to handle and acks it afterwards, whatever
// handle returned. Undecodable bodies are acked and dropped. It returns when
// ctx is done or the channel closes.
func (c *Consumer) Consume(ctx context.Context, handle func(context.Context, Message) error) error {
	deliveries, err := c.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming %s: %w", c.queue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel for %s closed", c.queue)
			}

			var msg Message
			if err := json.Unmarshal(d.Body, &msg); err != nil {
				log.Error().Err(err).Str("routing_key", d.RoutingKey).Msg("dropping undecodable message")
			} else {
				if msg.ID == "" {
					msg.ID = d.MessageId
				}
				if err := handle(ctx, msg); err != nil {
					log.Error().Err(err).Str("pattern", msg.Pattern).Str("message_id", msg.ID).Msg("message handling failed")
				}
			}

			if err := d.Ack(false); err != nil {
				log.Warn().Err(err).Msg("failed to ack message")
			}
		}
	}
}

func (c *Consumer) Close() {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}
}
