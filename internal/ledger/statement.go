package ledger

import (
	"context"
	"fmt"

	"github.com/josh-kwaku/credit-ledger/internal/domain"
)

// Statement reads without taking the account lock. The store returns the
// balance and transactions from one snapshot, so they always agree even if
// an Apply commits meanwhile.
func (s *Service) Statement(ctx context.Context, accountID int64) (*domain.Statement, error) {
	if accountID <= 0 {
		return nil, fmt.Errorf("Statement: %w", domain.ErrAccountNotFound)
	}

	acct, txns, err := s.store.Statement(ctx, accountID, StatementSize)
	if err != nil {
		return nil, fmt.Errorf("Statement: %w", storageError(err))
	}

	return &domain.Statement{
		Balance:      acct.Balance,
		Limit:        acct.Limit,
		AsOf:         s.now(),
		Transactions: txns,
	}, nil
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
