package notifications

import (
	"context"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

const consumerTag = "notifications-service"

type Consumer struct {
	channel  *amqp.Channel
	queue    string
	notifier *Notifier
	logger   *slog.Logger
}

func NewConsumer(conn *amqp.Connection, queue string, notifier *Notifier, logger *slog.Logger) (*Consumer, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		queue,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare queue %q: %w", queue, err)
	}

	return &Consumer{
		channel:  ch,
		queue:    queue,
		notifier: notifier,
		logger:   logger,
	}, nil
}

func (c *Consumer) Listen(ctx context.Context) error {
	msgs, err := c.channel.Consume(
		c.queue,
		consumerTag,
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume queue %q: %w", c.queue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}

			if err := c.notifier.Handle(msg.Body); err != nil {
				// A body that does not decode will never decode; drop it.
				c.logger.Error("handle message failed", "error", err)
				_ = msg.Nack(false, false)
				continue
			}

			_ = msg.Ack(false)
		}
	}
}

func (c *Consumer) Close() error {
	return c.channel.Close()
}
