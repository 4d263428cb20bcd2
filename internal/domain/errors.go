package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountExists      = errors.New("account already exists")
	ErrOverdraft          = errors.New("transaction would exceed credit limit")
	ErrBalanceOutOfRange  = errors.New("transaction would exceed the maximum balance")
	ErrStorageUnavailable = errors.New("storage unavailable")

	ErrInvalidAmount      = fmt.Errorf("%w: amount must be between 1 and %d", ErrValidation, MaxAmount)
	ErrInvalidKind        = fmt.Errorf("%w: kind must be credit or debit", ErrValidation)
	ErrInvalidDescription = fmt.Errorf("%w: description must be 1 to %d characters", ErrValidation, MaxDescriptionLength)
	ErrInvalidAccount     = fmt.Errorf("%w: invalid account", ErrValidation)
)
