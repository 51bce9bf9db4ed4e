// File: internal/adapter/http/handlers/system.go
package handlers

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

var (
	instanceID = uuid.NewString()
	startedAt  = time.Now()
)

// HandleHealth checks server health.
func (h *HTTPHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"instance_id":    instanceID,
		"timestamp":      time.Now().Unix(),
		"uptime_seconds": time.Since(startedAt).Seconds(),
		"namespaces":     len(h.Registry.List()),
	})
}

// HandleStats returns detailed statistics, for one namespace when
// ?namespace= is given, otherwise for all of them.
func (h *HTTPHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	namespace := r.URL.Query().Get("namespace")

	if namespace != "" {
		st, ok := h.Registry.StatsForNamespace(namespace)
		if !ok {
			http.Error(w, "namespace not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"namespace": namespace,
			"stats":     st,
		})
		return
	}

	statsMap := h.Registry.StatsAll()
	writeJSON(w, http.StatusOK, map[string]any{
		"namespaces":    len(statsMap),
		"per_namespace": statsMap,
	})
}

func decodeJSONBody(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
