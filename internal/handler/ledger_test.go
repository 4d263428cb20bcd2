package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/credit-ledger/internal/domain"
	"github.com/josh-kwaku/credit-ledger/internal/ledger"
	"github.com/josh-kwaku/credit-ledger/internal/storage/memory"
)

type mockLedger struct {
	applied   *ledger.ApplyRequest
	result    *ledger.Result
	statement *domain.Statement
	err       error
}

func (m *mockLedger) Apply(_ context.Context, req ledger.ApplyRequest) (*ledger.Result, error) {
	m.applied = &req
	return m.result, m.err
}

func (m *mockLedger) Statement(_ context.Context, _ int64) (*domain.Statement, error) {
	return m.statement, m.err
}

type mockPinger struct{ err error }

func (m mockPinger) Ping(context.Context) error { return m.err }

func newTestRouter(svc ledgerService) *http.ServeMux {
	return NewRouter(NewLedgerHandler(svc), NewHealthHandler(mockPinger{}, "memory"))
}

func do(t *testing.T, mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	t.Helper()
	var resp struct {
		Success bool     `json:"success"`
		Error   APIError `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	return resp.Error
}

func TestCreateTransaction_Success(t *testing.T) {
	svc := &mockLedger{result: &ledger.Result{Limit: 100000, Balance: -9098}}
	rec := do(t, newTestRouter(svc), http.MethodPost, "/clientes/1/transacoes",
		`{"valor": 1000, "tipo": "d", "descricao": "descricao"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"limite": 100000, "saldo": -9098}`, rec.Body.String())
	require.NotNil(t, svc.applied)
	assert.Equal(t, ledger.ApplyRequest{
		AccountID:   1,
		Amount:      1000,
		Kind:        domain.KindDebit,
		Description: "descricao",
	}, *svc.applied)
}

func TestCreateTransaction_RejectsBadInput(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		body      string
		wantCode  string
		wantField string
	}{
		{name: "float amount", path: "/clientes/1/transacoes", body: `{"valor": 1.2, "tipo": "d", "descricao": "x"}`, wantCode: "VALIDATION_FAILED", wantField: "valor"},
		{name: "string amount", path: "/clientes/1/transacoes", body: `{"valor": "ten", "tipo": "d", "descricao": "x"}`, wantCode: "INVALID_REQUEST"},
		{name: "amount above maximum", path: "/clientes/1/transacoes", body: `{"valor": 1000000000000001, "tipo": "d", "descricao": "x"}`, wantCode: "VALIDATION_FAILED", wantField: "valor"},
		{name: "max int64 amount", path: "/clientes/1/transacoes", body: `{"valor": 9223372036854775807, "tipo": "d", "descricao": "x"}`, wantCode: "VALIDATION_FAILED", wantField: "valor"},
		{name: "invalid body on id zero", path: "/clientes/0/transacoes", body: `{"valor": 1, "tipo": "x", "descricao": "x"}`, wantCode: "VALIDATION_FAILED", wantField: "tipo"},
		{name: "zero amount", path: "/clientes/1/transacoes", body: `{"valor": 0, "tipo": "c", "descricao": "x"}`, wantCode: "VALIDATION_FAILED", wantField: "valor"},
		{name: "missing amount", path: "/clientes/1/transacoes", body: `{"tipo": "c", "descricao": "x"}`, wantCode: "VALIDATION_FAILED", wantField: "valor"},
		{name: "bad kind", path: "/clientes/1/transacoes", body: `{"valor": 1, "tipo": "x", "descricao": "x"}`, wantCode: "VALIDATION_FAILED", wantField: "tipo"},
		{name: "long description", path: "/clientes/1/transacoes", body: `{"valor": 1, "tipo": "c", "descricao": "0123456789a"}`, wantCode: "VALIDATION_FAILED", wantField: "descricao"},
		{name: "null description", path: "/clientes/1/transacoes", body: `{"valor": 1, "tipo": "c", "descricao": null}`, wantCode: "VALIDATION_FAILED", wantField: "descricao"},
		{name: "empty description", path: "/clientes/1/transacoes", body: `{"valor": 1, "tipo": "c", "descricao": ""}`, wantCode: "VALIDATION_FAILED", wantField: "descricao"},
		{name: "malformed json", path: "/clientes/1/transacoes", body: `{"valor":`, wantCode: "INVALID_REQUEST"},
		{name: "non numeric id", path: "/clientes/abc/transacoes", body: `{"valor": 1, "tipo": "c", "descricao": "x"}`, wantCode: "INVALID_REQUEST"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockLedger{}
			rec := do(t, newTestRouter(svc), http.MethodPost, tc.path, tc.body)

			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			apiErr := decodeError(t, rec)
			assert.Equal(t, tc.wantCode, apiErr.Code)
			assert.Nil(t, svc.applied, "invalid input never reaches the ledger")

			if tc.wantField != "" {
				raw, err := json.Marshal(apiErr.Details)
				require.NoError(t, err)
				assert.Contains(t, string(raw), fmt.Sprintf(`"field":"%s"`, tc.wantField))
			}
		})
	}
}

func TestCreateTransaction_DomainErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "not found", err: fmt.Errorf("Apply: %w", domain.ErrAccountNotFound), wantStatus: http.StatusNotFound, wantCode: "ACCOUNT_NOT_FOUND"},
		{name: "overdraft", err: fmt.Errorf("Apply: %w", domain.ErrOverdraft), wantStatus: http.StatusUnprocessableEntity, wantCode: "INSUFFICIENT_LIMIT"},
		{name: "balance ceiling", err: fmt.Errorf("Apply: %w", domain.ErrBalanceOutOfRange), wantStatus: http.StatusUnprocessableEntity, wantCode: "BALANCE_OUT_OF_RANGE"},
		{name: "invalid description", err: domain.ErrInvalidDescription, wantStatus: http.StatusUnprocessableEntity, wantCode: "INVALID_DESCRIPTION"},
		{name: "storage", err: fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, errors.New("conn reset")), wantStatus: http.StatusServiceUnavailable, wantCode: "STORAGE_UNAVAILABLE"},
		{name: "deadline", err: fmt.Errorf("Apply: %w", context.DeadlineExceeded), wantStatus: http.StatusServiceUnavailable, wantCode: "REQUEST_ABANDONED"},
		{name: "unknown", err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantCode: "INTERNAL_ERROR"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockLedger{err: tc.err}
			rec := do(t, newTestRouter(svc), http.MethodPost, "/clientes/1/transacoes",
				`{"valor": 1, "tipo": "d", "descricao": "x"}`)

			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, tc.wantCode, decodeError(t, rec).Code)
		})
	}
}

func TestGetStatement(t *testing.T) {
	at := time.Date(2024, 1, 17, 2, 34, 38, 543030000, time.UTC)
	svc := &mockLedger{statement: &domain.Statement{
		Balance: -9098,
		Limit:   100000,
		AsOf:    at,
		Transactions: []domain.Transaction{
			{ID: uuid.New(), AccountID: 1, Amount: 10, Kind: domain.KindCredit, Description: "descricao", BalanceAfter: -9098, OccurredAt: at},
			{ID: uuid.New(), AccountID: 1, Amount: 90000, Kind: domain.KindDebit, Description: "descricao", BalanceAfter: -9108, OccurredAt: at},
		},
	}}

	rec := do(t, newTestRouter(svc), http.MethodGet, "/clientes/1/extrato", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"saldo": {"total": -9098, "data_extrato": "2024-01-17T02:34:38.54303Z", "limite": 100000},
		"ultimas_transacoes": [
			{"valor": 10, "tipo": "c", "descricao": "descricao", "realizada_em": "2024-01-17T02:34:38.54303Z"},
			{"valor": 90000, "tipo": "d", "descricao": "descricao", "realizada_em": "2024-01-17T02:34:38.54303Z"}
		]
	}`, rec.Body.String())
}

func TestGetStatement_EmptyListIsArray(t *testing.T) {
	svc := &mockLedger{statement: &domain.Statement{Limit: 1000, AsOf: time.Now()}}
	rec := do(t, newTestRouter(svc), http.MethodGet, "/clientes/1/extrato", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ultimas_transacoes":[]`)
}

func TestGetStatement_NotFound(t *testing.T) {
	svc := &mockLedger{err: domain.ErrAccountNotFound}
	rec := do(t, newTestRouter(svc), http.MethodGet, "/clientes/6/extrato", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "ACCOUNT_NOT_FOUND", decodeError(t, rec).Code)
}

func TestLedgerRoundTrip(t *testing.T) {
	store := memory.NewStore()
	svc := ledger.NewService(store, nil)
	_, err := svc.Provision(context.Background(), domain.DefaultAccounts)
	require.NoError(t, err)
	mux := newTestRouter(svc)

	rec := do(t, mux, http.MethodPost, "/clientes/1/transacoes", `{"valor": 500, "tipo": "c", "descricao": "deposit"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"limite": 100000, "saldo": 500}`, rec.Body.String())

	rec = do(t, mux, http.MethodPost, "/clientes/1/transacoes", `{"valor": 100501, "tipo": "d", "descricao": "too much"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "INSUFFICIENT_LIMIT", decodeError(t, rec).Code)

	rec = do(t, mux, http.MethodPost, "/clientes/6/transacoes", `{"valor": 1, "tipo": "c", "descricao": "x"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, mux, http.MethodPost, "/clientes/0/transacoes", `{"valor": 1, "tipo": "c", "descricao": "x"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, mux, http.MethodPost, "/clientes/0/transacoes", `{"valor": 1, "tipo": "c", "descricao": ""}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, mux, http.MethodGet, "/clientes/0/extrato", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, mux, http.MethodGet, "/clientes/1/extrato", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var st statementResponse
	require.NoError(t, json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(&st))
	assert.Equal(t, int64(500), st.Saldo.Total)
	assert.Equal(t, int64(100000), st.Saldo.Limite)
	require.Len(t, st.UltimasTransacoes, 1)
	assert.Equal(t, "c", st.UltimasTransacoes[0].Tipo)
	assert.Equal(t, "deposit", st.UltimasTransacoes[0].Descricao)
}

func TestHealth(t *testing.T) {
	ok := NewRouter(NewLedgerHandler(&mockLedger{}), NewHealthHandler(mockPinger{}, "sqlite"))
	down := NewRouter(NewLedgerHandler(&mockLedger{}), NewHealthHandler(mockPinger{err: errors.New("closed")}, "sqlite"))

	assert.Equal(t, http.StatusOK, do(t, ok, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, do(t, ok, http.MethodGet, "/health/ready", "").Code)

	rec := do(t, down, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"sqlite":"down"`)
}

func TestDocs(t *testing.T) {
	mux := newTestRouter(&mockLedger{})

	rec := do(t, mux, http.MethodGet, "/docs/openapi.yaml", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/yaml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "/clientes/{id}/transacoes:")

	rec = do(t, mux, http.MethodGet, "/docs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "swagger-ui")
}
