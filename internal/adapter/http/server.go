// File: internal/adapter/http/server.go
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/pailcache/pail/internal/engine"
)

type ServerConfig struct {
	Port          int
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	IdleTimeout   time.Duration
	EnableCORS    bool
	EnableMetrics bool
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:          8080,
		ReadTimeout:   30 * time.Second,
		WriteTimeout:  30 * time.Second,
		IdleTimeout:   120 * time.Second,
		EnableMetrics: true,
	}
}

type Server struct {
	registry *engine.Registry
	router   *mux.Router
	config   ServerConfig
	srv      *http.Server
}

func NewServer(registry *engine.Registry) *Server {
	return NewServerWithConfig(registry, DefaultServerConfig())
}

func NewServerWithConfig(registry *engine.Registry, config ServerConfig) *Server {
	s := &Server{
		registry: registry,
		router:   mux.NewRouter(),
		config:   config,
	}
	s.setupRoutes()

	s.srv = &http.Server{
		Addr:         fmt.Sprintf(":%d", config.Port),
		Handler:      s.Router(),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return s
}

func (s *Server) Router() http.Handler {
	if s.config.EnableCORS {
		return CorsMiddleware(s.router)
	}
	return s.router
}

func (s *Server) ListenAndServe() error {
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
