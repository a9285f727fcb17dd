// Package server exposes the analysis pipeline over HTTP for batch
// integrations that post input tables instead of running the CLI.
package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"pbb/internal/config"
	"pbb/internal/store"
)

const (
	readTimeout    = 30 * time.Second
	writeTimeout   = 60 * time.Second
	maxUploadBytes = 32 << 20 // 32 MB across both tables
)

// Server serves analysis requests over HTTP.
type Server struct {
	http.Server

	cfg     config.Analysis
	history *store.History // optional; nil disables run persistence
	logger  *slog.Logger
}

// New builds a server bound to addr. A nil history disables run
// persistence; a nil logger falls back to slog.Default.
func New(addr string, cfg config.Analysis, history *store.History, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:     cfg,
		history: history,
		logger:  logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /v1/analyze", s.handleAnalyze)
	mux.HandleFunc("GET /v1/runs", s.handleListRuns)
	mux.HandleFunc("GET /v1/runs/{id}", s.handleGetRun)

	s.Server.Addr = addr
	s.Server.Handler = s.withRequestLog(mux)
	s.Server.ReadTimeout = readTimeout
	s.Server.WriteTimeout = writeTimeout
	return s
}

// ListenAndServe runs the server until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Server.ListenAndServe()
	}()

	s.logger.Info("server listening", "addr", s.Addr)

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Server.Shutdown(shutdownCtx)
	}
}

// withRequestLog logs one line per request with a generated request ID.
func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := newRequestID()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.logger.Info("request",
			"request_id", reqID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func newRequestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(b)
}
