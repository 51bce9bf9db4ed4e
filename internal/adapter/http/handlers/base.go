// File: internal/adapter/http/handlers/base.go
package handlers

import (
	"context"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/pailcache/pail/internal/engine"
)

// HTTPHandlers holds the dependencies shared by all request handlers.
type HTTPHandlers struct {
	Registry *engine.Registry
}

func NewHTTPHandlers(registry *engine.Registry) *HTTPHandlers {
	return &HTTPHandlers{Registry: registry}
}

// namespaceFromContext reads the namespace injected by the middleware.
// The string key matches the one the middleware uses; it avoids an import
// cycle between the two packages.
func namespaceFromContext(ctx context.Context) string {
	if v := ctx.Value("pailNamespace"); v != nil {
		if ns, ok := v.(string); ok {
			return ns
		}
	}
	return "default"
}

func (h *HTTPHandlers) cacheFor(r *http.Request) *engine.Cache {
	return h.Registry.GetCache(namespaceFromContext(r.Context()))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
