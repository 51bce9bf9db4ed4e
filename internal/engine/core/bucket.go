// File: internal/engine/core/bucket.go
package core

import (
	"container/list"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

const (
	minCapacityHint      = 16
	DefaultSweepInterval = time.Second
)

var (
	ErrEmptyBucket     = errors.New("bucket is empty")
	ErrInvalidCapacity = errors.New("capacity must be positive")
	ErrInvalidTTL      = errors.New("ttl must be positive")
)

// node is the list payload. The key lives here because eviction and the
// sweep both start from list elements, not from the map.
type node struct {
	key   string
	entry *Entry
}

// Bucket is a capacity- and TTL-bounded shard of the cache. A single
// structure — hash map plus intrusive list of nodes — carries both key
// lookup and insertion order, so the two can never diverge.
//
// Ordering: list front = newest, back = oldest. Overwriting a key rebuilds
// its Entry (fresh timestamp) and moves its node to the front, which keeps
// the list sorted by creation time.
//
// Capacity is advisory: Set never evicts. The caller decides when a full
// bucket should shed its oldest entry via RemoveOldest.
//
// Bucket owns at most one background sweep goroutine. Call Close to release
// it when the bucket is discarded.
type Bucket struct {
	mu    sync.RWMutex
	items map[string]*list.Element
	ll    *list.List

	capacity int // advisory; <= 0 means unbounded

	ttlMillis    atomic.Int64 // 0 = no TTL
	sweepStarted atomic.Bool
	sweepEvery   time.Duration
	onSweep      func(removed int, took time.Duration)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed atomic.Bool
}

// BucketConfig configures a bucket.
type BucketConfig struct {
	Capacity      int
	TTL           time.Duration // 0 disables expiry
	SweepInterval time.Duration
	// OnSweep is invoked after every sweep pass that ran, even when nothing
	// was removed. Optional.
	OnSweep func(removed int, took time.Duration)
}

// NewBucket creates a bucket with no TTL. The sweep is launched lazily by
// the first SetTTL call.
func NewBucket(capacity int) *Bucket {
	return NewBucketWithConfig(BucketConfig{Capacity: capacity})
}

// NewBucketWithTTL creates a bucket whose entries expire after ttl and
// starts the sweep immediately.
func NewBucketWithTTL(capacity int, ttl time.Duration) *Bucket {
	return NewBucketWithConfig(BucketConfig{Capacity: capacity, TTL: ttl})
}

func NewBucketWithConfig(cfg BucketConfig) *Bucket {
	ctx, cancel := context.WithCancel(context.Background())

	sweepEvery := cfg.SweepInterval
	if sweepEvery <= 0 {
		sweepEvery = DefaultSweepInterval
	}

	b := &Bucket{
		items:      make(map[string]*list.Element, capacityHint(cfg.Capacity)),
		ll:         list.New(),
		capacity:   cfg.Capacity,
		sweepEvery: sweepEvery,
		onSweep:    cfg.OnSweep,
		ctx:        ctx,
		cancel:     cancel,
	}

	if cfg.TTL > 0 {
		b.ttlMillis.Store(cfg.TTL.Milliseconds())
		b.startSweep()
	}

	return b
}

// Set creates or overwrites the entry for key. The timestamp is always
// refreshed. Capacity is not enforced here.
func (b *Bucket) Set(key string, value []byte) {
	ent := NewEntry(value)

	b.mu.Lock()
	if elem, ok := b.items[key]; ok {
		elem.Value.(*node).entry = ent
		b.ll.MoveToFront(elem)
	} else {
		b.items[key] = b.ll.PushFront(&node{key: key, entry: ent})
	}
	b.mu.Unlock()
}

// Get returns the current entry for key. It does not refresh the timestamp
// and does not promote the key: eviction order is insertion order, not
// access order. Entries past their TTL remain visible until a sweep pass
// collects them (expiry is eventually consistent).
func (b *Bucket) Get(key string) (*Entry, bool) {
	b.mu.RLock()
	elem, ok := b.items[key]
	if !ok {
		b.mu.RUnlock()
		return nil, false
	}
	ent := elem.Value.(*node).entry
	b.mu.RUnlock()

	return ent, true
}

// Remove deletes key and its single index node. Removing an absent key is
// a no-op and reports false.
func (b *Bucket) Remove(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	elem, ok := b.items[key]
	if !ok {
		return false
	}
	b.removeElementLocked(elem)
	return true
}

// RemoveOldest evicts the entry at the back of the list (earliest
// still-live insertion) and returns its key. An empty bucket returns
// ErrEmptyBucket.
func (b *Bucket) RemoveOldest() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	elem := b.ll.Back()
	if elem == nil {
		return "", ErrEmptyBucket
	}

	key := elem.Value.(*node).key
	b.removeElementLocked(elem)
	return key, nil
}

// Len returns the live entry count. Under concurrent mutation this is a
// snapshot only.
func (b *Bucket) Len() int {
	b.mu.RLock()
	n := len(b.items)
	b.mu.RUnlock()
	return n
}

// Clear removes all entries. Not atomic with respect to concurrent Set
// calls: a racing write may land before or after the wipe.
func (b *Bucket) Clear() {
	b.mu.Lock()
	b.items = make(map[string]*list.Element, capacityHint(b.capacity))
	b.ll.Init()
	b.mu.Unlock()
}

// Keys returns the live keys oldest first.
func (b *Bucket) Keys() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	keys := make([]string, 0, b.ll.Len())
	for elem := b.ll.Back(); elem != nil; elem = elem.Prev() {
		keys = append(keys, elem.Value.(*node).key)
	}
	return keys
}

// Resize rebuilds the backing map with a new capacity hint, preserving all
// entries and their order. It holds the bucket write lock for the whole
// rebuild, so it cannot race concurrent writers.
func (b *Bucket) Resize(newCapacity int) error {
	if newCapacity <= 0 {
		return ErrInvalidCapacity
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	rebuilt := make(map[string]*list.Element, capacityHint(newCapacity))
	for elem := b.ll.Front(); elem != nil; elem = elem.Next() {
		rebuilt[elem.Value.(*node).key] = elem
	}
	b.items = rebuilt
	b.capacity = newCapacity
	return nil
}

// Capacity returns the advisory capacity. <= 0 means unbounded.
func (b *Bucket) Capacity() int {
	b.mu.RLock()
	c := b.capacity
	b.mu.RUnlock()
	return c
}

// TTL returns the configured entry lifetime, or 0 when expiry is disabled.
func (b *Bucket) TTL() time.Duration {
	return time.Duration(b.ttlMillis.Load()) * time.Millisecond
}

// SetTTL enables or updates the entry lifetime. The first successful call
// on a TTL-less bucket launches the sweep; later calls only swap the
// threshold. There is no way back to the no-TTL state.
func (b *Bucket) SetTTL(ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}

	b.ttlMillis.Store(ttl.Milliseconds())
	b.startSweep()
	return nil
}

// Close stops the sweep goroutine, if one was started, and waits for it to
// exit. Safe to call multiple times. The bucket's data stays readable.
func (b *Bucket) Close() {
	if !b.closed.CompareAndSwap(false, true) {
		return
	}
	b.cancel()
	b.wg.Wait()
}

// removeElementLocked is the single removal primitive. Explicit Remove,
// FIFO eviction and the TTL sweep all funnel through it, so map and list
// stay in lockstep. Callers hold b.mu.
func (b *Bucket) removeElementLocked(elem *list.Element) {
	n := elem.Value.(*node)
	delete(b.items, n.key)
	b.ll.Remove(elem)
}

func capacityHint(capacity int) int {
	if capacity < minCapacityHint {
		return minCapacityHint
	}
	return capacity
}
