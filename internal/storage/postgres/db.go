package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"github.com/josh-kwaku/credit-ledger/internal/storage"
)

type scanner interface {
	Scan(dest ...any) error
}

type PoolConfig struct {
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetimeS int
	ConnMaxIdleTimeS int
}

// Connect opens a pool and pings until the database answers or attempts run
// out, sleeping a second between tries.
func Connect(ctx context.Context, databaseURL string, pool PoolConfig, attempts int) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("Connect: open: %w", err)
	}

	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(pool.ConnMaxLifetimeS) * time.Second)
	db.SetConnMaxIdleTime(time.Duration(pool.ConnMaxIdleTimeS) * time.Second)

	for i := range max(attempts, 1) {
		if err = db.PingContext(ctx); err == nil {
			return db, nil
		}
		slog.Info("waiting for database", "attempt", i+1, "error", err)
		select {
		case <-ctx.Done():
			db.Close()
			return nil, fmt.Errorf("Connect: %w", ctx.Err())
		case <-time.After(time.Second):
		}
	}

	db.Close()
	return nil, fmt.Errorf("Connect: gave up after %d attempts: %w", attempts, err)
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Begin(ctx context.Context) (storage.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Begin: %w", err)
	}
	return &Tx{tx: tx}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

type Tx struct {
	tx *sql.Tx
}

func (t *Tx) Commit() error {
	return t.tx.Commit()
}

func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}

var _ storage.Store = (*Store)(nil)
