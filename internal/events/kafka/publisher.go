package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/josh-kwaku/credit-ledger/internal/events"
)

type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher hashes on the account id so one account's events share a
// partition.
func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
			WriteTimeout:           5 * time.Second,
		},
	}
}

func (p *Publisher) Publish(ctx context.Context, e *events.TransactionApplied) error {
	data, err := e.ToJSON()
	if err != nil {
		return fmt.Errorf("Publish: marshal: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   e.Key(),
		Value: data,
		Time:  e.OccurredAt,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(e.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("Publish: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
