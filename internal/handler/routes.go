package handler

import "net/http"

func NewRouter(l *LedgerHandler, h *HealthHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.Liveness)
	mux.HandleFunc("GET /health/ready", h.Readiness)
	mux.HandleFunc("GET /docs", ServeDocs)
	mux.HandleFunc("GET /docs/openapi.yaml", ServeOpenAPI)
	mux.HandleFunc("POST /clientes/{id}/transacoes", l.CreateTransaction)
	mux.HandleFunc("GET /clientes/{id}/extrato", l.GetStatement)
	return mux
}
