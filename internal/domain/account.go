package domain

import (
	"fmt"
	"time"
)

// Amounts and balances are bounded well inside int64 so that
// balance+delta can never wrap in Go or in any backend's SQL.
const (
	MaxAmount  int64 = 1_000_000_000_000_000
	MaxBalance int64 = 1_000_000_000_000_000_000
)

type Account struct {
	ID        int64
	Limit     int64
	Balance   int64
	UpdatedAt time.Time
}

func (a *Account) Validate() error {
	switch {
	case a.ID <= 0:
		return fmt.Errorf("%w: id must be positive", ErrInvalidAccount)
	case a.Limit < 0 || a.Limit > MaxBalance:
		return fmt.Errorf("%w: limit must be between 0 and %d", ErrInvalidAccount, MaxBalance)
	case a.Balance < -a.Limit || a.Balance > MaxBalance:
		return fmt.Errorf("%w: balance must be between -limit and %d", ErrInvalidAccount, MaxBalance)
	}
	return nil
}

// ValidDelta reports whether delta is a signed amount Apply could produce.
func ValidDelta(delta int64) bool {
	return delta != 0 && delta >= -MaxAmount && delta <= MaxAmount
}

// CheckDelta returns ErrOverdraft when delta would take the balance below
// -Limit and ErrBalanceOutOfRange when it would go above MaxBalance. The
// sum is checked for wrap-around before the bounds.
func (a *Account) CheckDelta(delta int64) error {
	next := a.Balance + delta
	switch {
	case delta > 0 && (next < a.Balance || next > MaxBalance):
		return ErrBalanceOutOfRange
	case delta < 0 && (next > a.Balance || next < -a.Limit):
		return ErrOverdraft
	}
	return nil
}

// DefaultAccounts are provisioned on first start when seeding is enabled.
var DefaultAccounts = []Account{
	{ID: 1, Limit: 100000},
	{ID: 2, Limit: 80000},
	{ID: 3, Limit: 1000000},
	{ID: 4, Limit: 10000000},
	{ID: 5, Limit: 500000},
}
