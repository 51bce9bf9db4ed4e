// File: internal/adapter/http/router.go
package http

import (
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pailcache/pail/internal/adapter/http/handlers"
)

func (s *Server) setupRoutes() {
	h := handlers.NewHTTPHandlers(s.registry)
	api := s.router.PathPrefix("/v1").Subrouter()

	// --- KV ROUTES ---
	api.HandleFunc("/kv/{key}", NamespaceMiddleware(s.registry, h.HandleGet)).Methods("GET")
	api.HandleFunc("/kv/{key}", NamespaceMiddleware(s.registry, h.HandlePut)).Methods("PUT")
	api.HandleFunc("/kv/{key}", NamespaceMiddleware(s.registry, h.HandleDelete)).Methods("DELETE")
	api.HandleFunc("/keys", NamespaceMiddleware(s.registry, h.HandleKeys)).Methods("GET")
	api.HandleFunc("/flush", NamespaceMiddleware(s.registry, h.HandleFlush)).Methods("POST")
	api.HandleFunc("/ttl", NamespaceMiddleware(s.registry, h.HandleSetTTL)).Methods("POST")

	// --- SYSTEM ROUTES ---
	api.HandleFunc("/stats", h.HandleStats).Methods("GET")

	// Health check
	s.router.HandleFunc("/health", h.HandleHealth).Methods("GET")

	// Prometheus scrape endpoint
	if s.config.EnableMetrics {
		s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	}
}
