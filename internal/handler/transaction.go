package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/josh-kwaku/credit-ledger/internal/domain"
	"github.com/josh-kwaku/credit-ledger/internal/ledger"
)

const maxBodyBytes = 4 << 10

type transactionRequest struct {
	Valor     json.Number `json:"valor"`
	Tipo      string      `json:"tipo"`
	Descricao *string     `json:"descricao"`
}

func (r transactionRequest) Validate() (ledger.ApplyRequest, []FieldError) {
	var (
		req  ledger.ApplyRequest
		errs []FieldError
	)

	if r.Valor == "" {
		errs = append(errs, FieldError{Field: "valor", Message: "required"})
	} else if amount, err := strconv.ParseInt(r.Valor.String(), 10, 64); err != nil || amount <= 0 || amount > domain.MaxAmount {
		errs = append(errs, FieldError{Field: "valor", Message: fmt.Sprintf("must be an integer between 1 and %d", domain.MaxAmount)})
	} else {
		req.Amount = amount
	}

	if kind, ok := domain.KindFromCode(r.Tipo); !ok {
		errs = append(errs, FieldError{Field: "tipo", Message: "must be c or d"})
	} else {
		req.Kind = kind
	}

	if r.Descricao == nil {
		errs = append(errs, FieldError{Field: "descricao", Message: "required"})
	} else if !domain.ValidDescription(*r.Descricao) {
		errs = append(errs, FieldError{Field: "descricao", Message: "must have 1 to 10 characters"})
	} else {
		req.Description = *r.Descricao
	}

	return req, errs
}

type transactionResponse struct {
	Limite int64 `json:"limite"`
	Saldo  int64 `json:"saldo"`
}

func (h *LedgerHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	accountID, appErr := accountFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var body transactionRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	req, fields := body.Validate()
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}
	req.AccountID = accountID

	res, err := h.ledger.Apply(r.Context(), req)
	if err != nil {
		logFailure(r, "transaction not applied", err)
		RespondDomainError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, transactionResponse{Limite: res.Limit, Saldo: res.Balance})
}
