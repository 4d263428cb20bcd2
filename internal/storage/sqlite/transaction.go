package sqlite

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/credit-ledger/internal/domain"
)

const transactionColumns = `id, account_id, amount, kind, description, balance_after, occurred_at`

func (t *Tx) AppendTransaction(ctx context.Context, txn *domain.Transaction) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO transactions (`+transactionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		txn.ID.String(), txn.AccountID, txn.Amount, string(txn.Kind), txn.Description,
		txn.BalanceAfter, toMicros(txn.OccurredAt),
	)
	if err != nil {
		return fmt.Errorf("AppendTransaction: %w", err)
	}
	return nil
}

// Statement runs both reads in one deferred transaction; under WAL the
// first SELECT pins the snapshot for the rest of it.
func (s *Store) Statement(ctx context.Context, id int64, n int) (*domain.Account, []domain.Transaction, error) {
	tx, err := s.read.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("Statement: begin: %w", err)
	}
	defer tx.Rollback()

	a, err := getAccount(ctx, tx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("Statement: %w", err)
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		WHERE account_id = ? ORDER BY occurred_at DESC, seq DESC LIMIT ?`,
		id, n,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("Statement: %w", err)
	}
	defer rows.Close()

	txns := make([]domain.Transaction, 0, n)
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("Statement: scan: %w", err)
		}
		txns = append(txns, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("Statement: rows: %w", err)
	}
	return a, txns, nil
}

func scanTransaction(s scanner) (*domain.Transaction, error) {
	var (
		t          domain.Transaction
		id, kind   string
		occurredAt int64
	)
	err := s.Scan(&id, &t.AccountID, &t.Amount, &kind, &t.Description, &t.BalanceAfter, &occurredAt)
	if err != nil {
		return nil, err
	}
	if t.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse transaction id: %w", err)
	}
	t.Kind = domain.Kind(kind)
	t.OccurredAt = fromMicros(occurredAt)
	return &t, nil
}
