package main

import (
	"context"
	"fmt"

	"github.com/josh-kwaku/credit-ledger/internal/config"
	"github.com/josh-kwaku/credit-ledger/internal/events"
	"github.com/josh-kwaku/credit-ledger/internal/events/amqp"
	"github.com/josh-kwaku/credit-ledger/internal/events/kafka"
	"github.com/josh-kwaku/credit-ledger/internal/storage"
	"github.com/josh-kwaku/credit-ledger/internal/storage/memory"
	"github.com/josh-kwaku/credit-ledger/internal/storage/postgres"
	"github.com/josh-kwaku/credit-ledger/internal/storage/sqlite"
)

type publisher interface {
	Publish(ctx context.Context, e *events.TransactionApplied) error
	Close() error
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.StorageBackend {
	case config.BackendPostgres:
		db, err := postgres.Connect(ctx, cfg.DatabaseURL, postgres.PoolConfig{
			MaxOpenConns:     cfg.DBMaxOpenConns,
			MaxIdleConns:     cfg.DBMaxIdleConns,
			ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
			ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
		}, cfg.DBConnectAttempts)
		if err != nil {
			return nil, fmt.Errorf("openStore: %w", err)
		}
		if err := postgres.Migrate(cfg.DatabaseURL); err != nil {
			db.Close()
			return nil, fmt.Errorf("openStore: %w", err)
		}
		return postgres.NewStore(db), nil
	case config.BackendSQLite:
		s, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("openStore: %w", err)
		}
		return s, nil
	case config.BackendMemory:
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("openStore: unknown backend %q", cfg.StorageBackend)
	}
}

// openPublisher returns nil when events are disabled.
func openPublisher(cfg *config.Config) (publisher, error) {
	switch cfg.EventsBackend {
	case config.EventsKafka:
		return kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	case config.EventsAMQP:
		p, err := amqp.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			return nil, fmt.Errorf("openPublisher: %w", err)
		}
		return p, nil
	default:
		return nil, nil
	}
}
