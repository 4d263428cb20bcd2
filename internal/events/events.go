package events

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/credit-ledger/internal/domain"
)

const TypeTransactionApplied = "transaction.applied"

// TransactionApplied is emitted after a transaction has committed. Events
// for one account may arrive out of order; OccurredAt and BalanceAfter let
// consumers put them back in sequence.
type TransactionApplied struct {
	Type          string    `json:"type"`
	TransactionID uuid.UUID `json:"transaction_id"`
	AccountID     int64     `json:"account_id"`
	Kind          string    `json:"kind"`
	Amount        int64     `json:"amount"`
	Description   string    `json:"description"`
	BalanceAfter  int64     `json:"balance_after"`
	Limit         int64     `json:"limit"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func NewTransactionApplied(acct *domain.Account, txn *domain.Transaction) *TransactionApplied {
	return &TransactionApplied{
		Type:          TypeTransactionApplied,
		TransactionID: txn.ID,
		AccountID:     txn.AccountID,
		Kind:          string(txn.Kind),
		Amount:        txn.Amount,
		Description:   txn.Description,
		BalanceAfter:  txn.BalanceAfter,
		Limit:         acct.Limit,
		OccurredAt:    txn.OccurredAt,
	}
}

// Key groups events of one account, e.g. onto one Kafka partition.
func (e *TransactionApplied) Key() []byte {
	return []byte(strconv.FormatInt(e.AccountID, 10))
}

func (e *TransactionApplied) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func TransactionAppliedFromJSON(data []byte) (*TransactionApplied, error) {
	var e TransactionApplied
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
