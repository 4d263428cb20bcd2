package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/josh-kwaku/credit-ledger/internal/domain"
)

const accountColumns = `id, credit_limit, balance, updated_at`

func (s *Store) GetAccount(ctx context.Context, id int64) (*domain.Account, error) {
	a, err := getAccount(ctx, s.db, id)
	if err != nil {
		return nil, fmt.Errorf("GetAccount: %w", err)
	}
	return a, nil
}

func (s *Store) CreateAccount(ctx context.Context, account *domain.Account) error {
	if err := account.Validate(); err != nil {
		return fmt.Errorf("CreateAccount: %w", err)
	}

	updatedAt := account.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING`,
		account.ID, account.Limit, account.Balance, updatedAt,
	)
	if err != nil {
		return fmt.Errorf("CreateAccount: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("CreateAccount: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("CreateAccount: %w", domain.ErrAccountExists)
	}
	return nil
}

// ApplyDelta relies on the row lock taken by UPDATE: a concurrent writer
// blocks until this transaction ends, then re-checks the WHERE clause
// against the committed balance.
func (t *Tx) ApplyDelta(ctx context.Context, id int64, delta int64, at time.Time) (*domain.Account, error) {
	if !domain.ValidDelta(delta) {
		return nil, fmt.Errorf("ApplyDelta: %w", domain.ErrInvalidAmount)
	}

	row := t.tx.QueryRowContext(ctx,
		`UPDATE accounts
		SET balance = balance + $2, updated_at = GREATEST(updated_at, $3)
		WHERE id = $1 AND balance + $2 >= -credit_limit AND balance + $2 <= $4
		RETURNING `+accountColumns,
		id, delta, at, domain.MaxBalance,
	)
	a, err := scanAccount(row)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("ApplyDelta: %w", err)
	}

	current, err := getAccount(ctx, t.tx, id)
	if err != nil {
		return nil, fmt.Errorf("ApplyDelta: %w", err)
	}
	if err := current.CheckDelta(delta); err != nil {
		return nil, fmt.Errorf("ApplyDelta: %w", err)
	}
	return nil, fmt.Errorf("ApplyDelta: balance changed under the row lock")
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getAccount(ctx context.Context, q queryer, id int64) (*domain.Account, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return a, nil
}

func scanAccount(s scanner) (*domain.Account, error) {
	var a domain.Account
	if err := s.Scan(&a.ID, &a.Limit, &a.Balance, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.UpdatedAt = a.UpdatedAt.UTC()
	return &a, nil
}
