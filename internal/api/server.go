package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ereOn/home-control/internal/dispatch"
	"github.com/ereOn/home-control/internal/entity"
	"github.com/ereOn/home-control/internal/infrastructure/config"
	"github.com/ereOn/home-control/internal/infrastructure/logging"
	"github.com/ereOn/home-control/internal/status"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// StateSource delivers entity state changes for websocket broadcast.
// This is the slice of the upstream sync client the server needs; keeping
// it an interface avoids a live connection in tests.
type StateSource interface {
	SetOnStateChange(func(entity.State))
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config     *config.Config
	Logger     *logging.Logger
	Status     *status.Builder
	Dispatcher *dispatch.Dispatcher
	Source     StateSource // optional: websocket push disabled when nil
	Version    string
}

// Server is the HTTP API server for the gateway.
//
// It manages the HTTP listener, routes, middleware, and the WebSocket hub
// pushing state changes to the touchscreen UI. The server is created with
// New() and started with Start().
type Server struct {
	cfg        *config.Config
	logger     *logging.Logger
	statusView *status.Builder
	dispatcher *dispatch.Dispatcher
	source     StateSource
	version    string
	server     *http.Server
	hub        *Hub
	cancel     context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (config, logger, status builder, dispatcher)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Status == nil {
		return nil, fmt.Errorf("status builder is required")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}

	return &Server{
		cfg:        deps.Config,
		logger:     deps.Logger,
		statusView: deps.Status,
		dispatcher: deps.Dispatcher,
		source:     deps.Source,
		version:    deps.Version,
	}, nil
}

// Start begins listening for HTTP connections.
//
// It starts the WebSocket hub, wires upstream state changes into the hub
// broadcast, and launches the HTTP listener in a background goroutine.
// The server can be stopped with Close().
//
// Parameters:
//   - ctx: Context for cancellation (not used for listener lifetime)
//
// Returns:
//   - error: If the server fails to start (port in use, etc.)
func (s *Server) Start(ctx context.Context) error {
	// Internal context so Close() can stop background goroutines
	// independently of the parent context.
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	s.hub = NewHub(s.cfg.WebSocket, s.logger)
	go s.hub.Run(srvCtx)

	// Every applied entity state fans out to subscribed UI clients.
	if s.source != nil {
		s.source.SetOnStateChange(func(state entity.State) {
			s.hub.Broadcast(channelStateChanged, stateEventPayload(state))
		})
	}

	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              s.cfg.ListenAddr(),
		Handler:           router,
		ReadTimeout:       s.cfg.GetReadTimeout(),
		ReadHeaderTimeout: s.cfg.GetReadTimeout(),
		WriteTimeout:      s.cfg.GetWriteTimeout(),
		IdleTimeout:       s.cfg.GetIdleTimeout(),
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
//
// Returns:
//   - error: If shutdown encounters an error
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	// Cancel background goroutines (hub)
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
