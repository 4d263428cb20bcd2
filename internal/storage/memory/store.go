// Package memory is an in-process Store. Each account carries its own
// RWMutex: a Tx holds the write side from ApplyDelta until Commit or
// Rollback, readers take the read side.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/josh-kwaku/credit-ledger/internal/domain"
	"github.com/josh-kwaku/credit-ledger/internal/storage"
)

var ErrTxDone = errors.New("memory: transaction already committed or rolled back")

type account struct {
	mu   sync.RWMutex
	data domain.Account
	log  []domain.Transaction
}

type Store struct {
	mu       sync.RWMutex
	accounts map[int64]*account
}

func NewStore() *Store {
	return &Store{accounts: make(map[int64]*account)}
}

func (s *Store) lookup(id int64) (*account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	return a, ok
}

func (s *Store) GetAccount(_ context.Context, id int64) (*domain.Account, error) {
	a, ok := s.lookup(id)
	if !ok {
		return nil, fmt.Errorf("GetAccount: %w", domain.ErrAccountNotFound)
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	cp := a.data
	return &cp, nil
}

func (s *Store) CreateAccount(_ context.Context, acct *domain.Account) error {
	if err := acct.Validate(); err != nil {
		return fmt.Errorf("CreateAccount: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[acct.ID]; ok {
		return fmt.Errorf("CreateAccount: %w", domain.ErrAccountExists)
	}
	data := *acct
	if data.UpdatedAt.IsZero() {
		data.UpdatedAt = time.Now().UTC()
	}
	s.accounts[acct.ID] = &account{data: data}
	return nil
}

func (s *Store) Statement(_ context.Context, id int64, n int) (*domain.Account, []domain.Transaction, error) {
	a, ok := s.lookup(id)
	if !ok {
		return nil, nil, fmt.Errorf("Statement: %w", domain.ErrAccountNotFound)
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	cp := a.data
	count := min(n, len(a.log))
	recent := make([]domain.Transaction, 0, count)
	for i := len(a.log) - 1; i >= len(a.log)-count; i-- {
		recent = append(recent, a.log[i])
	}
	return &cp, recent, nil
}

func (s *Store) Begin(ctx context.Context) (storage.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("Begin: %w", err)
	}
	return &tx{store: s}, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

type tx struct {
	store    *Store
	locked   *account
	pending  domain.Account
	appended []domain.Transaction
	done     bool
}

func (t *tx) ApplyDelta(_ context.Context, id int64, delta int64, at time.Time) (*domain.Account, error) {
	if t.done {
		return nil, fmt.Errorf("ApplyDelta: %w", ErrTxDone)
	}
	if !domain.ValidDelta(delta) {
		return nil, fmt.Errorf("ApplyDelta: %w", domain.ErrInvalidAmount)
	}
	if t.locked != nil && t.pending.ID != id {
		return nil, fmt.Errorf("ApplyDelta: transaction is bound to account %d", t.pending.ID)
	}

	if t.locked == nil {
		a, ok := t.store.lookup(id)
		if !ok {
			return nil, fmt.Errorf("ApplyDelta: %w", domain.ErrAccountNotFound)
		}
		a.mu.Lock()
		t.locked = a
		t.pending = a.data
	}

	if err := t.pending.CheckDelta(delta); err != nil {
		return nil, fmt.Errorf("ApplyDelta: %w", err)
	}

	t.pending.Balance += delta
	if at.After(t.pending.UpdatedAt) {
		t.pending.UpdatedAt = at
	}
	cp := t.pending
	return &cp, nil
}

func (t *tx) AppendTransaction(_ context.Context, txn *domain.Transaction) error {
	if t.done {
		return fmt.Errorf("AppendTransaction: %w", ErrTxDone)
	}
	if t.locked == nil || txn.AccountID != t.pending.ID {
		return fmt.Errorf("AppendTransaction: account %d not updated in this transaction", txn.AccountID)
	}
	t.appended = append(t.appended, *txn)
	return nil
}

func (t *tx) Commit() error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	if t.locked == nil {
		return nil
	}
	t.locked.data = t.pending
	t.locked.log = append(t.locked.log, t.appended...)
	t.locked.mu.Unlock()
	return nil
}

func (t *tx) Rollback() error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	if t.locked != nil {
		t.locked.mu.Unlock()
	}
	return nil
}

var _ storage.Store = (*Store)(nil)
