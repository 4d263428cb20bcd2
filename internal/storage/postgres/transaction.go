package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/josh-kwaku/credit-ledger/internal/domain"
)

const transactionColumns = `id, account_id, amount, kind, description, balance_after, occurred_at`

func (t *Tx) AppendTransaction(ctx context.Context, txn *domain.Transaction) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO transactions (`+transactionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		txn.ID, txn.AccountID, txn.Amount, txn.Kind, txn.Description,
		txn.BalanceAfter, txn.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("AppendTransaction: %w", err)
	}
	return nil
}

// Statement reads inside a REPEATABLE READ transaction so the balance and
// the rows come from the same snapshot.
func (s *Store) Statement(ctx context.Context, id int64, n int) (*domain.Account, []domain.Transaction, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
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
		WHERE account_id = $1 ORDER BY occurred_at DESC, seq DESC LIMIT $2`,
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

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("Statement: commit: %w", err)
	}
	return a, txns, nil
}

func scanTransaction(s scanner) (*domain.Transaction, error) {
	var t domain.Transaction
	err := s.Scan(
		&t.ID, &t.AccountID, &t.Amount, &t.Kind, &t.Description,
		&t.BalanceAfter, &t.OccurredAt,
	)
	if err != nil {
		return nil, err
	}
	t.OccurredAt = t.OccurredAt.UTC()
	return &t, nil
}
