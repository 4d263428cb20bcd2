package testutil

import (
	"context"
	"testing"

	"github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
)

// SetupKafka starts a single-node Kafka and returns its bootstrap brokers.
// Skipped under -short.
func SetupKafka(t *testing.T) []string {
	t.Helper()
	if testing.Short() {
		t.Skip("kafka integration test skipped in short mode")
	}
	ctx := context.Background()

	container, err := kafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		kafka.WithClusterID("ledger-test"),
	)
	if err != nil {
		t.Fatalf("start kafka container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate kafka container: %v", err)
		}
	})

	brokers, err := container.Brokers(ctx)
	if err != nil {
		t.Fatalf("get kafka brokers: %v", err)
	}
	return brokers
}

// SetupRabbitMQ starts a RabbitMQ broker and returns its AMQP URL. Skipped
// under -short.
func SetupRabbitMQ(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("rabbitmq integration test skipped in short mode")
	}
	ctx := context.Background()

	container, err := rabbitmq.Run(ctx, "rabbitmq:3.13-management-alpine")
	if err != nil {
		t.Fatalf("start rabbitmq container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate rabbitmq container: %v", err)
		}
	})

	url, err := container.AmqpURL(ctx)
	if err != nil {
		t.Fatalf("get amqp url: %v", err)
	}
	return url
}
