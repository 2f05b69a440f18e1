package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"
)

const consumerGroup = "notifications-service"

type KafkaConsumer struct {
	reader   *kafka.Reader
	notifier *Notifier
	logger   *slog.Logger
}

func NewKafkaConsumer(brokers []string, topic string, notifier *Notifier, logger *slog.Logger) *KafkaConsumer {
	return &KafkaConsumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: brokers,
			Topic:   topic,
			GroupID: consumerGroup,
		}),
		notifier: notifier,
		logger:   logger,
	}
}

// Listen reads until ctx is cancelled. Offsets are committed only after a
// message was handled or judged undecodable.
func (c *KafkaConsumer) Listen(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("fetch message: %w", err)
		}

		if err := c.notifier.Handle(msg.Value); err != nil {
			c.logger.Error("handle message failed",
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err,
			)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("commit message: %w", err)
		}
	}
}

func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}
