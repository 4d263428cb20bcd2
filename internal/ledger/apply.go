package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/credit-ledger/internal/domain"
	"github.com/josh-kwaku/credit-ledger/internal/logging"
)

type ApplyRequest struct {
	AccountID   int64
	Amount      int64
	Kind        domain.Kind
	Description string
}

func (r ApplyRequest) Validate() error {
	if r.Amount <= 0 || r.Amount > domain.MaxAmount {
		return domain.ErrInvalidAmount
	}
	if !r.Kind.IsValid() {
		return domain.ErrInvalidKind
	}
	if !domain.ValidDescription(r.Description) {
		return domain.ErrInvalidDescription
	}
	return nil
}

type Result struct {
	Limit   int64
	Balance int64
}

// Apply validates the request, then checks the limit, updates the balance
// and appends the transaction as one unit. On any error nothing is written.
func (s *Service) Apply(ctx context.Context, req ApplyRequest) (*Result, error) {
	log := logging.FromContext(ctx)

	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("Apply: %w", err)
	}
	if req.AccountID <= 0 {
		return nil, fmt.Errorf("Apply: %w", domain.ErrAccountNotFound)
	}

	unlock, err := s.locks.Lock(ctx, req.AccountID)
	if err != nil {
		return nil, fmt.Errorf("Apply: wait for account %d: %w", req.AccountID, err)
	}
	defer unlock()

	acct, txn, err := s.commit(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Apply: %w", err)
	}
	unlock()

	log.Info("transaction applied",
		"account_id", acct.ID,
		"transaction_id", txn.ID,
		"kind", txn.Kind,
		"amount", txn.Amount,
		"balance", acct.Balance,
		"limit", acct.Limit,
	)

	s.publish(ctx, acct, txn)

	return &Result{Limit: acct.Limit, Balance: acct.Balance}, nil
}

func (s *Service) commit(ctx context.Context, req ApplyRequest) (*domain.Account, *domain.Transaction, error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("commit: begin: %w", storageError(err))
	}
	defer tx.Rollback()

	acct, err := tx.ApplyDelta(ctx, req.AccountID, req.Kind.Signed(req.Amount), s.clock())
	if err != nil {
		return nil, nil, fmt.Errorf("commit: %w", storageError(err))
	}

	txn := &domain.Transaction{
		ID:           uuid.New(),
		AccountID:    acct.ID,
		Amount:       req.Amount,
		Kind:         req.Kind,
		Description:  req.Description,
		BalanceAfter: acct.Balance,
		OccurredAt:   acct.UpdatedAt,
	}
	if err := tx.AppendTransaction(ctx, txn); err != nil {
		return nil, nil, fmt.Errorf("commit: %w", storageError(err))
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit: %w", storageError(err))
	}
	return acct, txn, nil
}
