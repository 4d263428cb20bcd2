package domain

import (
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const MaxDescriptionLength = 10

type Kind string

const (
	KindCredit Kind = "credit"
	KindDebit  Kind = "debit"
)

func (k Kind) IsValid() bool {
	return k == KindCredit || k == KindDebit
}

// Code is the single-letter form used on the wire.
func (k Kind) Code() string {
	switch k {
	case KindCredit:
		return "c"
	case KindDebit:
		return "d"
	default:
		return ""
	}
}

func KindFromCode(code string) (Kind, bool) {
	switch code {
	case "c":
		return KindCredit, true
	case "d":
		return KindDebit, true
	default:
		return "", false
	}
}

// Signed returns amount with the sign implied by the kind.
func (k Kind) Signed(amount int64) int64 {
	if k == KindDebit {
		return -amount
	}
	return amount
}

type Transaction struct {
	ID           uuid.UUID
	AccountID    int64
	Amount       int64
	Kind         Kind
	Description  string
	BalanceAfter int64
	OccurredAt   time.Time
}

func ValidDescription(s string) bool {
	n := utf8.RuneCountInString(s)
	return n >= 1 && n <= MaxDescriptionLength
}

type Statement struct {
	Balance      int64
	Limit        int64
	AsOf         time.Time
	Transactions []Transaction
}
