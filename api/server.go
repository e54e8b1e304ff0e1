// Package api provides the HTTP REST API for gentax.
//
// Endpoints:
//
//	POST /api/chat        - chat exchange (JSON request/response)
//	POST /api/new-session - generate a fresh session id
//	GET  /api/health      - liveness payload
//	GET  /                - landing page
//	GET  /static/         - static assets
//
// File structure:
//   - server.go: HTTP server setup and lifecycle
//   - middleware.go: HTTP middleware (logging, recovery)
//   - chat.go: chat endpoint
//   - session.go: session-creation endpoint
//   - health.go: health endpoint
//   - pages.go: landing page and static assets
//   - response.go: JSON response helpers
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gentaxai/gentax/internal/log"
)

// ServiceName identifies this service in the health payload.
const ServiceName = "GenTax Chatbot"

// Server timeout configuration.
const (
	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout bounds header reads to prevent Slowloris attacks.
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 30 * time.Second

	// WriteTimeout is the maximum duration for writing the response. Chat
	// requests block on the upstream LLM round-trip, so this is generous.
	WriteTimeout = 2 * time.Minute

	// IdleTimeout is the keep-alive idle limit.
	IdleTimeout = 2 * time.Minute
)

// Server is the HTTP server for the gentax REST API.
type Server struct {
	mux    *http.ServeMux
	logger log.Logger

	chat    *ChatHandler
	session *SessionHandler
	health  *HealthHandler
	pages   *PagesHandler
}

// ServerConfig contains the dependencies for a Server.
type ServerConfig struct {
	Logger    log.Logger
	Chat      ChatService
	StaticDir string
}

// NewServer creates an HTTP server with all routes registered.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Chat == nil {
		return nil, errors.New("chat service is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	mux := http.NewServeMux()
	s := &Server{
		mux:     mux,
		logger:  logger,
		chat:    NewChatHandler(cfg.Chat, logger),
		session: NewSessionHandler(logger),
		health:  NewHealthHandler(),
		pages:   NewPagesHandler(cfg.StaticDir, logger),
	}

	s.chat.RegisterRoutes(mux)
	s.session.RegisterRoutes(mux)
	s.health.RegisterRoutes(mux)
	s.pages.RegisterRoutes(mux)

	return s, nil
}

// Handler returns the HTTP handler with middleware applied.
// Middleware order: recovery → logging → handler.
func (s *Server) Handler() http.Handler {
	return chain(s.mux, recoverPanics(s.logger), requestLogger(s.logger))
}

// Run starts the HTTP server and blocks until the context is cancelled,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
