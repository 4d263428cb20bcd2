package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/josh-kwaku/credit-ledger/internal/handler"
	"github.com/josh-kwaku/credit-ledger/internal/logging"
)

func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			err := recover()
			if err == nil {
				return
			}
			if err == http.ErrAbortHandler {
				panic(err)
			}
			log := logging.FromContext(r.Context())
			log.Error("panic recovered", "error", err, "path", r.URL.Path, "stack", string(debug.Stack()))
			handler.RespondAppError(w, handler.ErrInternalError, nil)
		}()
		next.ServeHTTP(w, r)
	})
}
