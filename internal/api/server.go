// internal/api/server.go
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/neptun-bridge/internal/registry"
)

const (
	gracefulShutdownTimeout = 10 * time.Second
	maxBodyBytes            = 1 << 20
)

// Service is what the HTTP surface needs from the hub registry.
type Service interface {
	States() []registry.HubState
	State(name string) (registry.HubState, error)

	OpenValve(name string, n int) (registry.HubState, error)
	CloseValve(name string, n int) (registry.HubState, error)
	OpenAllValves(name string) (registry.HubState, error)
	CloseAllValves(name string) (registry.HubState, error)
	SetConfigAttribute(name, attr string, value bool) (registry.HubState, error)
	Connect(name string) (registry.HubState, error)
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Listen  string
	Service Service
	Logger  zerolog.Logger
	Version string
}

// Server is the HTTP API server.
type Server struct {
	listen  string
	svc     Service
	log     zerolog.Logger
	version string

	server *http.Server
}

// New creates a server. It does not listen until Start.
func New(deps Deps) (*Server, error) {
	if deps.Service == nil {
		return nil, errors.New("api: service required")
	}
	return &Server{
		listen:  deps.Listen,
		svc:     deps.Service,
		log:     deps.Logger.With().Str("component", "api").Logger(),
		version: deps.Version,
	}, nil
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Start binds the listener and serves in the background.
// Bind errors are returned; later serve errors are logged.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.listen)
	if err != nil {
		return fmt.Errorf("api: listen %s: %w", s.listen, err)
	}

	s.server = &http.Server{
		Handler:           s.buildRouter(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.log.Info().Str("address", ln.Addr().String()).Msg("api server listening")

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("api server error")
		}
	}()
	return nil
}

// Close waits for in-flight requests, then stops the server.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.log.Info().Msg("api server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("api: shutdown: %w", err)
	}
	return nil
}
