package handler

import (
	"net/http"
	"time"

	"github.com/josh-kwaku/credit-ledger/internal/domain"
)

type balanceDTO struct {
	Total       int64     `json:"total"`
	DataExtrato time.Time `json:"data_extrato"`
	Limite      int64     `json:"limite"`
}

type transactionDTO struct {
	Valor       int64     `json:"valor"`
	Tipo        string    `json:"tipo"`
	Descricao   string    `json:"descricao"`
	RealizadaEm time.Time `json:"realizada_em"`
}

type statementResponse struct {
	Saldo             balanceDTO       `json:"saldo"`
	UltimasTransacoes []transactionDTO `json:"ultimas_transacoes"`
}

func toStatementResponse(st *domain.Statement) statementResponse {
	txns := make([]transactionDTO, len(st.Transactions))
	for i, t := range st.Transactions {
		txns[i] = transactionDTO{
			Valor:       t.Amount,
			Tipo:        t.Kind.Code(),
			Descricao:   t.Description,
			RealizadaEm: t.OccurredAt,
		}
	}
	return statementResponse{
		Saldo: balanceDTO{
			Total:       st.Balance,
			DataExtrato: st.AsOf,
			Limite:      st.Limit,
		},
		UltimasTransacoes: txns,
	}
}

func (h *LedgerHandler) GetStatement(w http.ResponseWriter, r *http.Request) {
	accountID, appErr := accountFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	st, err := h.ledger.Statement(r.Context(), accountID)
	if err != nil {
		logFailure(r, "statement not built", err)
		RespondDomainError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, toStatementResponse(st))
}
