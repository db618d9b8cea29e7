package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"bookstore/internal/auth"
	"bookstore/internal/book"
	"bookstore/internal/config"
	"bookstore/internal/httpx"

	"github.com/VictoriaMetrics/metrics"
	"github.com/gorilla/mux"
)

const maxBodyBytes = 1 << 20

type server struct {
	cfg     config.Config
	logger  *slog.Logger
	books   *book.Service
	auth    *auth.Service
	metrics *metrics.Set
	ping    func(ctx context.Context) error
	limiter *httpx.RateLimitMiddleware
}

// routes builds the router with the full middleware chain applied.
func (s *server) routes() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := s.ping(ctx); err != nil {
			http.Error(w, "store not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	}).Methods(http.MethodGet)
	r.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		s.metrics.WritePrometheus(w)
		metrics.WriteProcessMetrics(w)
	}).Methods(http.MethodGet)

	r.HandleFunc("/login", auth.NewHTTPHandler(s.auth).Login).Methods(http.MethodPost)
	book.NewHTTPHandler(s.books).RegisterRoutes(r, httpx.AuthMiddleware(s.cfg.JWTSecret))

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Route not found", nil)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpx.JSONError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	var h http.Handler = r
	h = httpx.RequestSizeLimitMiddleware(maxBodyBytes)(h)
	h = s.limiter.Middleware(h)
	h = httpx.MetricsMiddleware(s.metrics)(h)
	h = httpx.SecurityHeadersMiddleware(s.cfg.EnableHSTS)(h)
	h = httpx.CORSMiddleware(s.cfg.CORSOrigins)(h)
	h = httpx.AccessLogMiddleware(s.logger)(h)
	h = httpx.RecoveryMiddleware(s.logger)(h)
	h = httpx.RequestIDMiddleware(h)
	return h
}
