// File: internal/adapter/http/middleware.go
package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/pailcache/pail/internal/engine"
)

const acquireTimeout = 3 * time.Second

// CorsMiddleware allows requests from any origin (dev mode).
func CorsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, HEAD")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, X-Requested-With, X-Pail-Namespace")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// NamespaceMiddleware resolves the namespace from the X-Pail-Namespace
// header, takes a concurrency slot for it, and injects the name into the
// request context. The string key avoids an import cycle with the handlers
// package.
func NamespaceMiddleware(registry *engine.Registry, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		namespace := r.Header.Get("X-Pail-Namespace")
		if strings.TrimSpace(namespace) == "" {
			namespace = "default"
		}

		if !registry.Acquire(namespace, acquireTimeout) {
			http.Error(w, "namespace has too many concurrent requests", http.StatusTooManyRequests)
			return
		}
		defer registry.Release(namespace)

		ctx := context.WithValue(r.Context(), "pailNamespace", namespace)
		next(w, r.WithContext(ctx))
	}
}
