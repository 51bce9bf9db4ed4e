// File: internal/engine/cache.go
package engine

import (
	"context"
	"errors"
	"fmt"
	"hash"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/pailcache/pail/internal/engine/core"
	"github.com/pailcache/pail/internal/metrics"
)

var (
	ErrEmptyKey    = errors.New("empty key")
	ErrCacheClosed = errors.New("cache is closed")
)

var hashPool = sync.Pool{
	New: func() any {
		return fnv.New32a()
	},
}

// Config configures a Cache.
type Config struct {
	// Buckets is rounded up to a power of two so routing can mask instead
	// of mod.
	Buckets int

	// BucketCapacity is the advisory per-bucket entry limit. <= 0 means
	// unbounded; buckets never enforce it themselves, the cache evicts
	// oldest-first before admitting a write to a full bucket.
	BucketCapacity int

	// TTL applies to every bucket. 0 disables expiry; it can be enabled
	// later with SetTTL.
	TTL time.Duration

	SweepInterval time.Duration
}

// DefaultConfig returns the defaults used by the server.
func DefaultConfig() Config {
	return Config{
		Buckets:        64,
		BucketCapacity: 0,
		TTL:            0,
		SweepInterval:  core.DefaultSweepInterval,
	}
}

// Cache routes keys to buckets by hash, drives capacity-based eviction, and
// aggregates reads across buckets. Buckets stay ignorant of each other and
// of capacity policy.
type Cache struct {
	buckets []*core.Bucket
	mask    uint32

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64

	g      singleflight.Group
	closed atomic.Bool
}

// Stats is a point-in-time aggregate over all buckets.
type Stats struct {
	Items     int     `json:"items"`
	Buckets   int     `json:"buckets"`
	Capacity  int     `json:"bucket_capacity"`
	TTL       string  `json:"ttl"`
	Hits      uint64  `json:"hits"`
	Misses    uint64  `json:"misses"`
	Evictions uint64  `json:"evictions"`
	HitRate   float64 `json:"hit_rate"`
}

// New creates a cache with cfg. Zero-value fields fall back to defaults.
func New(cfg Config) *Cache {
	if cfg.Buckets <= 0 {
		cfg.Buckets = DefaultConfig().Buckets
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = core.DefaultSweepInterval
	}

	bucketCount := nextPowerOf2(cfg.Buckets)

	c := &Cache{
		buckets: make([]*core.Bucket, bucketCount),
		mask:    uint32(bucketCount - 1),
	}

	for i := 0; i < bucketCount; i++ {
		c.buckets[i] = core.NewBucketWithConfig(core.BucketConfig{
			Capacity:      cfg.BucketCapacity,
			TTL:           cfg.TTL,
			SweepInterval: cfg.SweepInterval,
			OnSweep:       onSweep,
		})
	}

	return c
}

func onSweep(removed int, took time.Duration) {
	if removed > 0 {
		metrics.Expirations.Add(float64(removed))
	}
	metrics.SweepDuration.Observe(took.Seconds())
}

func (c *Cache) bucket(key string) *core.Bucket {
	h := hashPool.Get().(hash.Hash32)
	h.Reset()
	h.Write([]byte(key))
	idx := h.Sum32() & c.mask
	hashPool.Put(h)
	return c.buckets[idx]
}

// Set stores key. If the target bucket is at capacity, its oldest entry is
// evicted first.
func (c *Cache) Set(key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	if c.closed.Load() {
		return ErrCacheClosed
	}

	b := c.bucket(key)

	if limit := b.Capacity(); limit > 0 && b.Len() >= limit {
		if _, ok := b.Get(key); !ok {
			// Admitting a genuinely new key: make room oldest-first.
			if _, err := b.RemoveOldest(); err == nil {
				c.evictions.Add(1)
				metrics.Evictions.Inc()
			}
		}
	}

	b.Set(key, encodeValue(value))
	metrics.Sets.Inc()
	return nil
}

// Get returns the value for key, or (nil, false).
func (c *Cache) Get(key string) ([]byte, bool) {
	if key == "" {
		c.misses.Add(1)
		metrics.Misses.Inc()
		return nil, false
	}

	ent, ok := c.bucket(key).Get(key)
	if !ok {
		c.misses.Add(1)
		metrics.Misses.Inc()
		return nil, false
	}

	value, err := decodeValue(ent.Value())
	if err != nil {
		// A corrupted value is unreachable by construction; drop it rather
		// than serve garbage.
		c.bucket(key).Remove(key)
		c.misses.Add(1)
		metrics.Misses.Inc()
		return nil, false
	}

	c.hits.Add(1)
	metrics.Hits.Inc()
	return value, true
}

// GetEntry exposes the raw entry, timestamp included. Used by the HTTP
// adapter to report entry age.
func (c *Cache) GetEntry(key string) (*core.Entry, bool) {
	if key == "" {
		return nil, false
	}
	return c.bucket(key).Get(key)
}

// Delete removes key. Deleting an absent key is a no-op.
func (c *Cache) Delete(key string) bool {
	if key == "" {
		return false
	}

	removed := c.bucket(key).Remove(key)
	if removed {
		metrics.Deletes.Inc()
	}
	return removed
}

// Exists reports whether key is present.
func (c *Cache) Exists(key string) bool {
	if key == "" {
		return false
	}
	_, ok := c.bucket(key).Get(key)
	return ok
}

// Len sums live entries across buckets. A snapshot under concurrency.
func (c *Cache) Len() int {
	total := 0
	for _, b := range c.buckets {
		total += b.Len()
	}
	return total
}

// Keys aggregates keys across buckets, oldest first within each bucket.
// There is no global ordering between buckets.
func (c *Cache) Keys() []string {
	keys := make([]string, 0, c.Len())
	for _, b := range c.buckets {
		keys = append(keys, b.Keys()...)
	}
	return keys
}

// Clear wipes every bucket.
func (c *Cache) Clear() {
	for _, b := range c.buckets {
		b.Clear()
	}
}

// SetTTL fans the new lifetime out to every bucket, launching sweeps on
// buckets that had none.
func (c *Cache) SetTTL(ttl time.Duration) error {
	for _, b := range c.buckets {
		if err := b.SetTTL(ttl); err != nil {
			return err
		}
	}
	return nil
}

// TTL returns the configured lifetime (0 = disabled). All buckets share it.
func (c *Cache) TTL() time.Duration {
	return c.buckets[0].TTL()
}

// Resize rebuilds every bucket's backing storage with a new capacity hint.
func (c *Cache) Resize(newCapacity int) error {
	for _, b := range c.buckets {
		if err := b.Resize(newCapacity); err != nil {
			return err
		}
	}
	return nil
}

// MGet returns the present subset of keys.
func (c *Cache) MGet(keys []string) map[string][]byte {
	if len(keys) == 0 {
		return nil
	}

	results := make(map[string][]byte, len(keys))
	for _, key := range keys {
		if val, ok := c.Get(key); ok {
			results[key] = val
		}
	}
	return results
}

// MSet stores every pair, failing on the first bad key.
func (c *Cache) MSet(items map[string][]byte) error {
	for key, val := range items {
		if err := c.Set(key, val); err != nil {
			return fmt.Errorf("mset failed at key %q: %w", key, err)
		}
	}
	return nil
}

// GetOrLoad returns the cached value for key, or runs loader exactly once
// across concurrent callers and caches its result. Waiters give up when ctx
// is done.
func (c *Cache) GetOrLoad(ctx context.Context, key string, loader func(context.Context) ([]byte, error)) ([]byte, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}

	if val, ok := c.Get(key); ok {
		return val, nil
	}

	resCh := c.g.DoChan(key, func() (any, error) {
		val, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		if err := c.Set(key, val); err != nil {
			return nil, err
		}
		return val, nil
	})

	select {
	case res := <-resCh:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Stats aggregates counters and per-bucket sizes.
func (c *Cache) Stats() Stats {
	items := 0
	for _, b := range c.buckets {
		items += b.Len()
	}

	hits := c.hits.Load()
	misses := c.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return Stats{
		Items:     items,
		Buckets:   len(c.buckets),
		Capacity:  c.buckets[0].Capacity(),
		TTL:       c.TTL().String(),
		Hits:      hits,
		Misses:    misses,
		Evictions: c.evictions.Load(),
		HitRate:   hitRate,
	}
}

// Close releases every bucket's sweep goroutine. The cache rejects writes
// afterwards but stays readable.
func (c *Cache) Close() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}
	for _, b := range c.buckets {
		b.Close()
	}
}

func nextPowerOf2(n int) int {
	if n <= 1 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++
	return n
}
