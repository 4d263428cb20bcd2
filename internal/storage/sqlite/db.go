// Package sqlite is a single-file Store on modernc.org/sqlite. Writes go
// through one connection opened with BEGIN IMMEDIATE, so a Tx holds the
// database write lock from its first statement. Reads use a separate pool
// in WAL mode and never wait for writers.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/josh-kwaku/credit-ledger/internal/storage"
)

const readPoolSize = 8

type scanner interface {
	Scan(dest ...any) error
}

type Store struct {
	write *sql.DB
	read  *sql.DB
}

// Open creates the database file if needed, applies migrations and returns
// a ready Store.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("Open: create db directory: %w", err)
	}

	if err := Migrate(path); err != nil {
		return nil, fmt.Errorf("Open: %w", err)
	}

	write, err := sql.Open("sqlite", dsn(path, "immediate"))
	if err != nil {
		return nil, fmt.Errorf("Open: writer: %w", err)
	}
	write.SetMaxOpenConns(1)

	read, err := sql.Open("sqlite", dsn(path, "deferred"))
	if err != nil {
		write.Close()
		return nil, fmt.Errorf("Open: reader: %w", err)
	}
	read.SetMaxOpenConns(readPoolSize)

	s := &Store{write: write, read: read}
	if err := s.Ping(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("Open: %w", err)
	}
	return s, nil
}

func dsn(path, txlock string) string {
	q := url.Values{}
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "synchronous(NORMAL)")
	q.Set("_txlock", txlock)
	return "file:" + path + "?" + q.Encode()
}

func (s *Store) Begin(ctx context.Context) (storage.Tx, error) {
	tx, err := s.write.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Begin: %w", err)
	}
	return &Tx{tx: tx}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.write.PingContext(ctx); err != nil {
		return fmt.Errorf("Ping: writer: %w", err)
	}
	if err := s.read.PingContext(ctx); err != nil {
		return fmt.Errorf("Ping: reader: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return errors.Join(s.write.Close(), s.read.Close())
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
