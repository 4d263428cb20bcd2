package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/credit-ledger/internal/domain"
	"github.com/josh-kwaku/credit-ledger/internal/events"
)

// NewTestEvent builds the event a debit of amount on accountID would emit.
func NewTestEvent(accountID, amount, balanceAfter int64) *events.TransactionApplied {
	return events.NewTransactionApplied(
		&domain.Account{ID: accountID, Limit: 100000, Balance: balanceAfter},
		&domain.Transaction{
			ID:           uuid.New(),
			AccountID:    accountID,
			Amount:       amount,
			Kind:         domain.KindDebit,
			Description:  "test",
			BalanceAfter: balanceAfter,
			OccurredAt:   time.Now().UTC().Truncate(time.Microsecond),
		},
	)
}
