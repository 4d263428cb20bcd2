package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/josh-kwaku/credit-ledger/internal/domain"
)

func SeedTestAccount(t *testing.T, db *sql.DB, id, limit, balance int64) *domain.Account {
	t.Helper()

	a := &domain.Account{
		ID:        id,
		Limit:     limit,
		Balance:   balance,
		UpdatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	_, err := db.Exec(
		`INSERT INTO accounts (id, credit_limit, balance, updated_at) VALUES ($1, $2, $3, $4)`,
		a.ID, a.Limit, a.Balance, a.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("seed test account %d: %v", id, err)
	}
	return a
}

func GetAccountBalance(t *testing.T, db *sql.DB, accountID int64) int64 {
	t.Helper()

	var balance int64
	err := db.QueryRow(`SELECT balance FROM accounts WHERE id = $1`, accountID).Scan(&balance)
	if err != nil {
		t.Fatalf("get account balance %d: %v", accountID, err)
	}
	return balance
}

func CountTransactions(t *testing.T, db *sql.DB, accountID int64) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM transactions WHERE account_id = $1`, accountID).Scan(&count)
	if err != nil {
		t.Fatalf("count transactions for account %d: %v", accountID, err)
	}
	return count
}

// ReplayBalance folds the full log in insertion order, starting from initial.
func ReplayBalance(t *testing.T, db *sql.DB, accountID, initial int64) int64 {
	t.Helper()

	var balance int64
	err := db.QueryRow(
		`SELECT $2::BIGINT + COALESCE(SUM(CASE kind WHEN 'credit' THEN amount ELSE -amount END), 0)
		FROM transactions WHERE account_id = $1`,
		accountID, initial,
	).Scan(&balance)
	if err != nil {
		t.Fatalf("replay balance %d: %v", accountID, err)
	}
	return balance
}
