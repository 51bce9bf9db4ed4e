// File: internal/engine/registry.go
package engine

import (
	"sync"
	"time"
)

const defaultMaxConcurrent = 100

// Registry manages named Cache instances. Every namespace gets its own
// cache created lazily from a shared template config, plus a concurrency
// slot channel so one noisy namespace cannot monopolize the server.
type Registry struct {
	mu            sync.RWMutex
	caches        map[string]*Cache
	slots         map[string]chan struct{}
	template      Config
	maxConcurrent int
}

// NewRegistry creates a registry whose caches are built from template.
func NewRegistry(template Config) *Registry {
	return NewRegistryWithLimit(template, defaultMaxConcurrent)
}

// NewRegistryWithLimit sets the per-namespace concurrency limit.
func NewRegistryWithLimit(template Config, maxConcurrent int) *Registry {
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}

	return &Registry{
		caches:        make(map[string]*Cache),
		slots:         make(map[string]chan struct{}),
		template:      template,
		maxConcurrent: maxConcurrent,
	}
}

// GetCache returns the cache for namespace, creating it on first use.
func (r *Registry) GetCache(namespace string) *Cache {
	r.mu.RLock()
	c, ok := r.caches[namespace]
	r.mu.RUnlock()

	if ok {
		return c
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok = r.caches[namespace]; ok {
		return c
	}

	c = New(r.template)
	r.caches[namespace] = c
	return c
}

// Acquire takes a concurrency slot for namespace, waiting up to timeout.
func (r *Registry) Acquire(namespace string, timeout time.Duration) bool {
	r.mu.Lock()
	ch, ok := r.slots[namespace]
	if !ok {
		ch = make(chan struct{}, r.maxConcurrent)
		r.slots[namespace] = ch
	}
	r.mu.Unlock()

	if timeout <= 0 {
		ch <- struct{}{}
		return true
	}

	select {
	case ch <- struct{}{}:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Release returns a previously acquired slot.
func (r *Registry) Release(namespace string) {
	r.mu.RLock()
	ch, ok := r.slots[namespace]
	r.mu.RUnlock()

	if !ok {
		return
	}

	select {
	case <-ch:
	default:
	}
}

// List returns all known namespaces.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.caches))
	for name := range r.caches {
		names = append(names, name)
	}
	return names
}

// Remove drops a namespace and releases its sweep goroutines.
func (r *Registry) Remove(namespace string) bool {
	r.mu.Lock()
	c, ok := r.caches[namespace]
	if ok {
		delete(r.caches, namespace)
		delete(r.slots, namespace)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}

	c.Close()
	return true
}

// StatsForNamespace returns stats for one namespace if it exists.
func (r *Registry) StatsForNamespace(namespace string) (Stats, bool) {
	r.mu.RLock()
	c, ok := r.caches[namespace]
	r.mu.RUnlock()

	if !ok {
		return Stats{}, false
	}
	return c.Stats(), true
}

// StatsAll returns stats keyed by namespace.
func (r *Registry) StatsAll() map[string]Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]Stats, len(r.caches))
	for name, c := range r.caches {
		out[name] = c.Stats()
	}
	return out
}

// CloseAll releases every cache. Used during shutdown so no sweep
// goroutine outlives the process's ownership of the registry.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.caches {
		c.Close()
	}
	r.caches = make(map[string]*Cache)
	r.slots = make(map[string]chan struct{})
}
