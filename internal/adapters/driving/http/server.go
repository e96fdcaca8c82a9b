package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/funayamateppei/local-rag-comparator/internal/core/ports/driven"
	"github.com/funayamateppei/local-rag-comparator/internal/core/ports/driving"
)

// HealthChecker is implemented by the AI services and checked by /ready
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	handler    http.Handler
	version    string
	logger     *slog.Logger

	uploadDir       string
	maxUploadBytes  int64
	shutdownTimeout time.Duration
	allowedOrigins  []string

	// Services
	processor  driving.DocumentProcessor
	comparator driving.Comparator
	docService driving.DocumentService
	tokens     driven.TokenService // nil disables bearer auth

	// Infrastructure
	readyChecks map[string]HealthChecker
}

// Config holds server configuration
type Config struct {
	Host            string
	Port            int
	Version         string
	UploadDir       string
	MaxUploadBytes  int64
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            8080,
		Version:         "dev",
		UploadDir:       "uploads",
		MaxUploadBytes:  32 << 20,
		AllowedOrigins:  []string{"*"},
		ShutdownTimeout: 30 * time.Second,
	}
}

// Services are the use cases the server exposes
type Services struct {
	Processor  driving.DocumentProcessor
	Comparator driving.Comparator
	Documents  driving.DocumentService

	// Tokens enables bearer auth on /api routes when non-nil
	Tokens driven.TokenService

	// ReadyChecks are run by /ready, keyed by a display name
	ReadyChecks map[string]HealthChecker

	Logger *slog.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, svc Services) *Server {
	defaults := DefaultConfig()
	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = defaults.UploadDir
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaults.MaxUploadBytes
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaults.ShutdownTimeout
	}

	logger := svc.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		router:          http.NewServeMux(),
		version:         cfg.Version,
		logger:          logger,
		uploadDir:       cfg.UploadDir,
		maxUploadBytes:  cfg.MaxUploadBytes,
		shutdownTimeout: cfg.ShutdownTimeout,
		allowedOrigins:  cfg.AllowedOrigins,
		processor:       svc.Processor,
		comparator:      svc.Comparator,
		docService:      svc.Documents,
		tokens:          svc.Tokens,
		readyChecks:     svc.ReadyChecks,
	}

	s.setupRoutes()
	s.handler = s.wrap(s.router)

	// Uploads are ingested synchronously, which includes model calls.
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	protect := func(h http.HandlerFunc) http.Handler { return h }
	if s.tokens != nil {
		authMiddleware := NewAuthMiddleware(s.tokens)
		protect = func(h http.HandlerFunc) http.Handler { return authMiddleware.Authenticate(h) }
	}

	// Health endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)

	// Document endpoints
	s.router.Handle("POST /api/v1/documents", protect(s.handleUploadDocument))
	s.router.Handle("GET /api/v1/documents", protect(s.handleListDocuments))
	s.router.Handle("GET /api/v1/documents/{id}", protect(s.handleGetDocument))
	s.router.Handle("GET /api/v1/documents/{id}/graph", protect(s.handleGetDocumentGraph))

	// Comparison endpoint
	s.router.Handle("POST /api/v1/compare", protect(s.handleCompare))
}

// wrap applies the global middleware chain: recovery, logging, CORS.
func (s *Server) wrap(h http.Handler) http.Handler {
	h = NewCORSMiddleware(s.allowedOrigins).Handler(h)
	h = NewLoggingMiddleware(s.logger).Handler(h)
	return NewRecoveryMiddleware(s.logger).Handler(h)
}

// Handler returns the fully wrapped handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start runs the server until SIGINT or SIGTERM, then shuts down gracefully
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
