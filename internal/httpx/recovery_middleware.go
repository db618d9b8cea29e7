package httpx

import (
	"log/slog"
	"net/http"
	"runtime/debug"
)

// RecoveryMiddleware turns a handler panic into a 500 envelope. A panic with
// http.ErrAbortHandler is re-raised so the server aborts the connection.
func RecoveryMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := wrapWriter(w)
			defer func() {
				p := recover()
				if p == nil {
					return
				}
				if p == http.ErrAbortHandler {
					panic(p)
				}
				logger.ErrorContext(r.Context(), "handler panicked",
					"method", r.Method,
					"path", r.URL.Path,
					"request_id", RequestIDFrom(r),
					"panic", p,
					"stack", string(debug.Stack()),
				)
				if !rec.wroteHeader() {
					JSONError(rec, r, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred", nil)
				}
			}()
			next.ServeHTTP(rec, r)
		})
	}
}
