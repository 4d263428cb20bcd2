// Package storage defines the contract the ledger needs from a backend:
// an account store with an atomic conditional update and an append-only
// transaction log, written together inside one Tx.
package storage

import (
	"context"
	"time"

	"github.com/josh-kwaku/credit-ledger/internal/domain"
)

type Store interface {
	Begin(ctx context.Context) (Tx, error)
	GetAccount(ctx context.Context, id int64) (*domain.Account, error)
	CreateAccount(ctx context.Context, account *domain.Account) error
	// Statement returns the account and its n most recent transactions,
	// newest first, read from a single consistent snapshot.
	Statement(ctx context.Context, id int64, n int) (*domain.Account, []domain.Transaction, error)
	Ping(ctx context.Context) error
	Close() error
}

// Tx is bound to at most one account. Nothing it does is visible to readers
// until Commit returns nil.
type Tx interface {
	// ApplyDelta adds delta to the balance if the result stays at or above
	// -limit, and moves UpdatedAt forward to at (never backwards). It
	// returns domain.ErrOverdraft or domain.ErrAccountNotFound without
	// changing anything.
	ApplyDelta(ctx context.Context, id int64, delta int64, at time.Time) (*domain.Account, error)
	AppendTransaction(ctx context.Context, txn *domain.Transaction) error
	Commit() error
	Rollback() error
}
