// Package gateway exposes the streaming analysis service over HTTP.
package gateway

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/c360/streamwatch/config"
	"github.com/c360/streamwatch/errors"
	"github.com/c360/streamwatch/health"
	"github.com/c360/streamwatch/metric"
	"github.com/c360/streamwatch/realtime"
)

// HealthSource reports the health of one service the gateway fronts.
type HealthSource interface {
	Health() health.Status
}

// Server is the HTTP and WebSocket front end for the analyzer.
type Server struct {
	cfg       config.HTTPConfig
	analyzer  *realtime.Analyzer
	registry  *metric.MetricsRegistry
	collector *metric.Collector
	sources   []HealthSource
	logger    *slog.Logger

	// Token bucket shared by all ingest requests
	ingestLimiter *rate.Limiter

	httpServer *http.Server
}

// ServerOption configures a Server
type ServerOption func(*Server)

// WithLogger sets a custom logger
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsRegistry wires the Prometheus registry, exposed at /metrics
func WithMetricsRegistry(registry *metric.MetricsRegistry) ServerOption {
	return func(s *Server) {
		s.registry = registry
	}
}

// WithCollector wires the sample collector, exposed at /stats
func WithCollector(collector *metric.Collector) ServerOption {
	return func(s *Server) {
		s.collector = collector
	}
}

// WithHealthSources registers services aggregated into /health
func WithHealthSources(sources ...HealthSource) ServerOption {
	return func(s *Server) {
		s.sources = append(s.sources, sources...)
	}
}

// NewServer creates the gateway for an analyzer.
func NewServer(cfg config.HTTPConfig, analyzer *realtime.Analyzer, opts ...ServerOption) *Server {
	s := &Server{
		cfg:           cfg,
		analyzer:      analyzer,
		logger:        slog.Default().With("component", "gateway"),
		ingestLimiter: rate.NewLimiter(rate.Limit(cfg.IngestRateLimit), cfg.IngestBurst),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// routes builds the request mux with middleware applied.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /realtime/stream", s.handleCreateStream)
	mux.HandleFunc("POST /realtime/data", s.handleIngest)
	mux.HandleFunc("GET /realtime/streams", s.handleListStreams)
	mux.HandleFunc("GET /realtime/analysis/{id}", s.handleLatestAnalysis)
	mux.HandleFunc("GET /realtime/history/{id}", s.handleHistory)
	mux.HandleFunc("DELETE /realtime/stream/{id}", s.handleRemoveStream)
	mux.HandleFunc("GET /realtime/watch/{id}", s.handleWatch)
	mux.HandleFunc("GET /health", s.handleHealth)

	if s.registry != nil {
		mux.Handle("GET /metrics", s.registry.Handler())
	}
	if s.collector != nil {
		mux.HandleFunc("GET /stats", s.handleStats)
	}

	return s.withMiddleware(mux)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("gateway listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return errors.WrapFatal(err, "Server", "Run", "listen")
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		timeout := s.cfg.ShutdownTimeout.Std()
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		s.logger.Info("gateway shutting down")
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return errors.WrapTransient(err, "Server", "Run", "graceful shutdown")
		}
		return nil
	})

	return g.Wait()
}

// withMiddleware applies request IDs, CORS, body limits, and access
// logging to every route.
func (s *Server) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := requestID(r)
		w.Header().Set("X-Request-ID", reqID)

		applyCORS(w, r)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxRequestBytes)
		}

		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request handled",
			"method", r.Method, "path", r.URL.Path,
			"request_id", reqID, "duration", time.Since(start))
	})
}

// requestID extracts the caller's request ID or generates one.
func requestID(r *http.Request) string {
	if id := r.Header.Get("X-Request-ID"); id != "" {
		return id
	}
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("req-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

func applyCORS(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}
	w.Header().Set("Access-Control-Allow-Origin", origin)
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// writeJSON writes a success envelope.
func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}

// writeError writes an error envelope with a sanitized message.
func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error":  message,
		"status": statusCode,
	})
}

// writeServiceError maps a service error to an HTTP status and safe
// message. Internal detail is logged, never exposed.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("request failed",
		"method", r.Method, "path", r.URL.Path, "error", err)
	s.writeError(w, statusForError(err), safeMessage(err))
}

func statusForError(err error) int {
	switch {
	case err == nil:
		return http.StatusInternalServerError
	case stderrors.Is(err, errors.ErrKeyNotFound), stderrors.Is(err, errors.ErrStreamNotFound):
		return http.StatusNotFound
	case errors.IsInvalid(err):
		return http.StatusBadRequest
	case errors.IsTransient(err):
		if strings.Contains(err.Error(), "timeout") {
			return http.StatusGatewayTimeout
		}
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func safeMessage(err error) string {
	switch {
	case err == nil:
		return "internal server error"
	case stderrors.Is(err, errors.ErrKeyNotFound), stderrors.Is(err, errors.ErrStreamNotFound):
		return "resource not found"
	case errors.IsInvalid(err):
		return "invalid request"
	case errors.IsTransient(err):
		if strings.Contains(err.Error(), "timeout") {
			return "request timeout"
		}
		return "service temporarily unavailable"
	default:
		return "internal server error"
	}
}
