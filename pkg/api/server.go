package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Server is the HTTP API server.
type Server struct {
	config   ServerConfig
	hub      *Hub
	handlers *Handlers
	server   *http.Server
	pool     *SessionPool
	version  string
	log      *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer creates a new API server.
func NewServer(config ServerConfig, version string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("api")

	pool := NewSessionPool(PoolConfig{
		MaxSessions: config.MaxSessions,
		MaxRequests: config.MaxRequests,
	})
	hub := NewHub(config, pool, log)
	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		config:   config,
		hub:      hub,
		handlers: NewHandlers(hub, pool, version, log),
		pool:     pool,
		version:  version,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Pool returns the session pool for monitoring.
func (s *Server) Pool() *SessionPool {
	return s.pool
}

// Hub returns the session hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// corsMiddleware adds CORS headers for browser access.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs all requests. It does not wrap the writer so
// websocket upgrades and flushing keep working.
func loggingMiddleware(log *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)))
	})
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	h := s.handlers

	mux.HandleFunc("GET /api/health", h.Health)
	mux.HandleFunc("POST /api/sessions", h.CreateSession)
	mux.HandleFunc("GET /api/sessions/{id}", h.GetSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", h.DeleteSession)
	mux.HandleFunc("POST /api/sessions/{id}/roll", h.Roll)
	mux.HandleFunc("POST /api/sessions/{id}/select", h.Select)
	mux.HandleFunc("POST /api/sessions/{id}/commit", h.Commit)
	mux.HandleFunc("GET /api/sessions/{id}/transcript", h.Transcript)
	mux.HandleFunc("GET /api/sessions/{id}/events", h.Events)
	mux.HandleFunc("GET /api/sessions/{id}/ws", h.WebSocket)

	return corsMiddleware(loggingMiddleware(s.log, mux))
}

// Start starts the HTTP server and the idle session reaper.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
	go s.hub.Run(s.ctx)

	s.log.Info("starting bgturn API server",
		zap.String("version", s.version),
		zap.String("addr", addr),
		zap.Int("max_sessions", s.config.MaxSessions),
		zap.Duration("session_ttl", s.config.SessionTTL))

	return s.server.ListenAndServe()
}

// Shutdown closes every session, which ends open event streams, then
// gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	s.hub.Close()
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// ListenAndServeWithGracefulShutdown starts the server and handles shutdown signals.
func (s *Server) ListenAndServeWithGracefulShutdown() error {
	errChan := make(chan error, 1)

	go func() {
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-quit:
		s.log.Info("shutting down", zap.Stringer("signal", sig))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.log.Info("server stopped")
	return nil
}
