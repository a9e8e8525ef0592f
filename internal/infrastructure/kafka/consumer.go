package kafka

import (
	"context"
	"errors"

	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"
)

type MessageHandler func(ctx context.Context, key, value []byte) error

type Consumer struct {
	reader *kafka.Reader
	name   string
}

// NewConsumer joins groupID; name only labels log lines
func NewConsumer(brokers []string, topic, groupID, name string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     groupID,
		MinBytes:    1,
		MaxBytes:    10e6, // 10MB
		StartOffset: kafka.FirstOffset,
	})
	return &Consumer{reader: reader, name: name}
}

// Consume hands every message to handler and commits it afterwards.
// A message the handler rejects is logged and committed so it cannot block the partition.
func (c *Consumer) Consume(ctx context.Context, handler MessageHandler) error {
	logger := log.WithField("component", c.name)

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return ctx.Err()
			}
			logger.Printf("Error reading message: %v", err)
			continue
		}

		if err := handler(ctx, msg.Key, msg.Value); err != nil {
			logger.WithFields(log.Fields{
				"partition": msg.Partition,
				"offset":    msg.Offset,
				"key":       string(msg.Key),
			}).Errorf("Error handling message: %v", err)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			logger.Printf("Error committing offset %d: %v", msg.Offset, err)
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
