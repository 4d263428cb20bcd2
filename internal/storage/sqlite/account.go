package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/josh-kwaku/credit-ledger/internal/domain"
)

const accountColumns = `id, credit_limit, balance, updated_at`

// Timestamps are stored as unix microseconds.
func toMicros(t time.Time) int64 { return t.UnixMicro() }

func fromMicros(v int64) time.Time { return time.UnixMicro(v).UTC() }

func (s *Store) GetAccount(ctx context.Context, id int64) (*domain.Account, error) {
	a, err := getAccount(ctx, s.read, id)
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

	res, err := s.write.ExecContext(ctx,
		`INSERT INTO accounts (`+accountColumns+`) VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`,
		account.ID, account.Limit, account.Balance, toMicros(updatedAt),
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

func (t *Tx) ApplyDelta(ctx context.Context, id int64, delta int64, at time.Time) (*domain.Account, error) {
	if !domain.ValidDelta(delta) {
		return nil, fmt.Errorf("ApplyDelta: %w", domain.ErrInvalidAmount)
	}

	row := t.tx.QueryRowContext(ctx,
		`UPDATE accounts
		SET balance = balance + ?, updated_at = MAX(updated_at, ?)
		WHERE id = ? AND balance + ? BETWEEN -credit_limit AND ?
		RETURNING `+accountColumns,
		delta, toMicros(at), id, delta, domain.MaxBalance,
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
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id,
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
	var (
		a         domain.Account
		updatedAt int64
	)
	if err := s.Scan(&a.ID, &a.Limit, &a.Balance, &updatedAt); err != nil {
		return nil, err
	}
	a.UpdatedAt = fromMicros(updatedAt)
	return &a, nil
}
