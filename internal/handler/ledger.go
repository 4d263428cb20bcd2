package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/josh-kwaku/credit-ledger/internal/domain"
	"github.com/josh-kwaku/credit-ledger/internal/ledger"
	"github.com/josh-kwaku/credit-ledger/internal/logging"
)

type ledgerService interface {
	Apply(ctx context.Context, req ledger.ApplyRequest) (*ledger.Result, error)
	Statement(ctx context.Context, accountID int64) (*domain.Statement, error)
}

type LedgerHandler struct {
	ledger ledgerService
}

func NewLedgerHandler(svc ledgerService) *LedgerHandler {
	return &LedgerHandler{ledger: svc}
}

// logFailure keeps business rejections out of the error log.
func logFailure(r *http.Request, msg string, err error) {
	log := logging.FromContext(r.Context())
	switch {
	case errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrOverdraft),
		errors.Is(err, domain.ErrBalanceOutOfRange),
		errors.Is(err, domain.ErrValidation):
		log.Info(msg, "error", err)
	default:
		log.Error(msg, "error", err)
	}
}
