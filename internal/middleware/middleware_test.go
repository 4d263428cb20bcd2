package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/credit-ledger/internal/logging"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	return &buf
}

func TestTracing(t *testing.T) {
	var seen string
	h := Tracing(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = TraceIDFromContext(r.Context())
	}))

	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{name: "propagates caller id", incoming: "req-123", keep: true},
		{name: "mints when missing", incoming: ""},
		{name: "keeps id at the length cap", incoming: strings.Repeat("a", maxRequestIDLen), keep: true},
		{name: "replaces oversized id", incoming: strings.Repeat("a", maxRequestIDLen+1)},
		{name: "replaces id with spaces", incoming: "a b"},
		{name: "replaces id with control bytes", incoming: "abc\x1b[31m"},
		{name: "replaces non ascii id", incoming: "pedido-ç"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.incoming != "" {
				req.Header.Set(RequestIDHeader, tc.incoming)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.NotEmpty(t, seen)
			assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
			if tc.keep {
				assert.Equal(t, tc.incoming, seen)
			} else {
				assert.NotEqual(t, tc.incoming, seen)
				assert.Len(t, seen, 36)
			}
		})
	}
}

func TestLoggingWritesRequestLine(t *testing.T) {
	buf := captureLogs(t)

	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logging.FromContext(r.Context()).Info("inside")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte("nope"))
	}), Tracing, Logging)

	req := httptest.NewRequest(http.MethodPost, "/clientes/1/transacoes", nil)
	req.Header.Set(RequestIDHeader, "trace-1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var inside, done map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &inside))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &done))

	assert.Equal(t, "trace-1", inside["request_id"])
	assert.Equal(t, "request completed", done["msg"])
	assert.Equal(t, float64(http.StatusUnprocessableEntity), done["status"])
	assert.Equal(t, float64(4), done["bytes"])
	assert.Equal(t, "/clientes/1/transacoes", done["path"])
}

func TestLoggingSkipsHealth(t *testing.T) {
	buf := captureLogs(t)

	h := Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Empty(t, buf.String())
}

func TestRecovery(t *testing.T) {
	buf := captureLogs(t)

	h := Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/clientes/1/extrato", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
	assert.Contains(t, buf.String(), "kaboom")
}

func TestRecoveryRepanicsAbort(t *testing.T) {
	h := Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { order = append(order, "handler") }),
		mw("outer"), mw("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestTraceIDFromContext(t *testing.T) {
	assert.Empty(t, TraceIDFromContext(context.Background()))
	assert.Equal(t, "abc", TraceIDFromContext(WithRequestID(context.Background(), "abc")))
}
