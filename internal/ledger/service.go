// Package ledger applies credits and debits to accounts and builds
// statements. Writes to one account are serialized by a per-account lock
// and land in storage as one transaction; different accounts never wait
// on each other.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/josh-kwaku/credit-ledger/internal/domain"
	"github.com/josh-kwaku/credit-ledger/internal/events"
	"github.com/josh-kwaku/credit-ledger/internal/lock"
	"github.com/josh-kwaku/credit-ledger/internal/logging"
	"github.com/josh-kwaku/credit-ledger/internal/storage"
)

const (
	StatementSize  = 10
	publishTimeout = 5 * time.Second
)

type publisher interface {
	Publish(ctx context.Context, e *events.TransactionApplied) error
}

type Service struct {
	store  storage.Store
	locks  *lock.Keyed[int64]
	events publisher
	now    func() time.Time
}

// NewService wires the ledger to a store. pub may be nil.
func NewService(store storage.Store, pub publisher) *Service {
	return &Service{
		store:  store,
		locks:  lock.NewKeyed[int64](),
		events: pub,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Provision creates accounts that do not exist yet. Existing ids are left
// untouched.
func (s *Service) Provision(ctx context.Context, accounts []domain.Account) (int, error) {
	created := 0
	for i := range accounts {
		a := accounts[i]
		if a.UpdatedAt.IsZero() {
			a.UpdatedAt = s.clock()
		}
		err := s.store.CreateAccount(ctx, &a)
		if errors.Is(err, domain.ErrAccountExists) {
			continue
		}
		if err != nil {
			return created, fmt.Errorf("Provision: account %d: %w", a.ID, storageError(err))
		}
		created++
	}
	return created, nil
}

// clock is truncated to the precision every backend can store.
func (s *Service) clock() time.Time {
	return s.now().Truncate(time.Microsecond)
}

func (s *Service) publish(ctx context.Context, acct *domain.Account, txn *domain.Transaction) {
	if s.events == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.events.Publish(ctx, events.NewTransactionApplied(acct, txn)); err != nil {
		logging.FromContext(ctx).Warn("failed to publish transaction event",
			"error", err,
			"account_id", txn.AccountID,
			"transaction_id", txn.ID,
		)
	}
}

// storageError marks anything that is not a ledger outcome as a storage
// failure, keeping the original error in the chain.
func storageError(err error) error {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrOverdraft),
		errors.Is(err, domain.ErrBalanceOutOfRange),
		errors.Is(err, domain.ErrAccountExists),
		errors.Is(err, domain.ErrValidation):
		return err
	default:
		return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}
}
