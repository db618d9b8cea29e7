package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// statusRecorder remembers the status and size of a response. Middleware
// layers share a single recorder per request.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written int64
	sent    bool
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.sent {
		return
	}
	s.status, s.sent = code, true
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	s.WriteHeader(http.StatusOK)
	n, err := s.ResponseWriter.Write(b)
	s.written += int64(n)
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

func (s *statusRecorder) wroteHeader() bool {
	return s.sent
}

func wrapWriter(w http.ResponseWriter) *statusRecorder {
	if s, ok := w.(*statusRecorder); ok {
		return s
	}
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func accessLevel(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// AccessLogMiddleware writes one line per request once the handler returns.
func AccessLogMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := wrapWriter(w)
			next.ServeHTTP(rec, r)

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.status),
				slog.Int64("bytes", rec.written),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", RequestIDFrom(r)),
			}
			if sub := SubjectFrom(r); sub != "" {
				attrs = append(attrs, slog.String("subject", sub))
			}
			logger.LogAttrs(context.WithoutCancel(r.Context()), accessLevel(rec.status), "http request", attrs...)
		})
	}
}
