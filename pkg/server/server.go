package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"webdesk/pkg/logging"
	"webdesk/pkg/metrics"
	"webdesk/pkg/router"
	"webdesk/pkg/session"
)

// DefaultMaxBodySize bounds request bodies. File contents travel inline.
const DefaultMaxBodySize = 8 << 20

// Server represents an HTTP server bound to one session.
type Server struct {
	handler http.Handler
	server  *http.Server
	session *session.Controller
	log     *zap.Logger
	mu      sync.RWMutex
	started bool
}

// Config holds server configuration.
type Config struct {
	Addr           string
	Session        *session.Controller
	ReadTimeout    time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration
	MaxBodySize    int64
	Now            func() time.Time
}

// New creates a new HTTP server with the given configuration.
func New(cfg Config) *Server {
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 120 * time.Second
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.MaxBodySize == 0 {
		cfg.MaxBodySize = DefaultMaxBodySize
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	s := &Server{
		session: cfg.Session,
		log:     logging.Named("server"),
	}
	s.handler = s.routes(cfg)

	// No WriteTimeout: the event stream stays open for the life of the page.
	s.server = &http.Server{
		Addr:        cfg.Addr,
		Handler:     s,
		ReadTimeout: cfg.ReadTimeout,
		IdleTimeout: cfg.IdleTimeout,
	}
	return s
}

func (s *Server) routes(cfg Config) http.Handler {
	r := router.New()
	r.Use(
		router.RecoveryMiddleware(),
		router.LoggingMiddleware(),
		router.MetricsMiddleware(),
		router.CORSMiddleware(),
		router.MaxBodyMiddleware(cfg.MaxBodySize),
	)
	r.SetNotFoundHandler(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, req, errNotFound(req.URL.Path))
	}))

	r.GET("/health", HealthHandler())
	var pinger Pinger
	if s.session != nil {
		pinger = s.session
	}
	r.GET("/ready", ReadyHandler(pinger))
	r.GET("/metrics", metrics.Handler())

	if s.session != nil {
		a := &api{s: s.session, now: cfg.Now}
		a.register(r, router.TimeoutMiddleware(cfg.RequestTimeout))
	}
	return r
}

// ServeHTTP implements http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe starts the server and listens for connections.
func (s *Server) ListenAndServe() error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("server already started")
	}
	s.started = true
	s.mu.Unlock()

	s.log.Info("starting server", zap.String("addr", s.Addr()))
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	if !s.started {
		s.mu.RUnlock()
		return nil
	}
	s.mu.RUnlock()

	s.log.Info("shutting down server")
	return s.server.Shutdown(ctx)
}

// Close closes the server immediately.
func (s *Server) Close() error {
	s.mu.RLock()
	if !s.started {
		s.mu.RUnlock()
		return nil
	}
	s.mu.RUnlock()

	return s.server.Close()
}

// Addr returns the server address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// Started returns whether the server has been started.
func (s *Server) Started() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// HealthHandler returns a handler for health checks.
func HealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadyHandler returns a handler for readiness checks. It fails while the
// persistence store cannot be reached.
func ReadyHandler(p Pinger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := p.Ping(ctx); err != nil {
				logging.WithContext(r.Context()).Warn("readiness check failed", zap.Error(err))
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "unavailable",
					"error":  err.Error(),
				})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}
