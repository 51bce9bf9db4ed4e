// File: internal/adapter/http/handlers/kv.go
package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// Values above this size are rejected outright instead of buffered.
const maxValueBytes = 10 * 1024 * 1024

// HandleGet serves the raw value for a key.
func (h *HTTPHandlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	cache := h.cacheFor(r)

	value, ok := cache.Get(key)
	if !ok {
		http.Error(w, "key not found", http.StatusNotFound)
		return
	}

	if ent, ok := cache.GetEntry(key); ok {
		w.Header().Set("X-Pail-Created-At", ent.CreatedAt().UTC().Format(time.RFC3339Nano))
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(value)
}

// HandlePut stores the request body under the key.
func (h *HTTPHandlers) HandlePut(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	body, err := io.ReadAll(io.LimitReader(r.Body, maxValueBytes+1))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	if len(body) > maxValueBytes {
		http.Error(w, "value too large", http.StatusRequestEntityTooLarge)
		return
	}

	if err := h.cacheFor(r).Set(key, body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"key":   key,
		"bytes": len(body),
	})
}

// HandleDelete removes a key. Deleting an absent key still returns 200;
// absence is not an error.
func (h *HTTPHandlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	removed := h.cacheFor(r).Delete(key)

	writeJSON(w, http.StatusOK, map[string]any{
		"key":     key,
		"removed": removed,
	})
}

// HandleKeys lists keys, oldest first per bucket.
func (h *HTTPHandlers) HandleKeys(w http.ResponseWriter, r *http.Request) {
	keys := h.cacheFor(r).Keys()

	writeJSON(w, http.StatusOK, map[string]any{
		"count": len(keys),
		"keys":  keys,
	})
}

// HandleFlush clears the namespace.
func (h *HTTPHandlers) HandleFlush(w http.ResponseWriter, r *http.Request) {
	h.cacheFor(r).Clear()
	writeJSON(w, http.StatusOK, map[string]any{"flushed": true})
}

type setTTLRequest struct {
	TTL string `json:"ttl"`
}

// HandleSetTTL enables or updates the namespace TTL. The first call starts
// the expiry sweeps; later calls only adjust the threshold.
func (h *HTTPHandlers) HandleSetTTL(w http.ResponseWriter, r *http.Request) {
	var req setTTLRequest
	if err := decodeJSONBody(r, &req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	ttl, err := time.ParseDuration(req.TTL)
	if err != nil {
		http.Error(w, "invalid ttl duration", http.StatusBadRequest)
		return
	}

	if err := h.cacheFor(r).SetTTL(ttl); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ttl": ttl.String()})
}
