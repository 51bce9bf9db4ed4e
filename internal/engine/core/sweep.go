// File: internal/engine/core/sweep.go
package core

import (
	"container/list"
	"time"
)

// startSweep launches the bucket's sweep goroutine exactly once. The
// sweepStarted flag never resets, so a bucket gets at most one sweeper for
// its whole lifetime regardless of how often SetTTL is called.
func (b *Bucket) startSweep() {
	if !b.sweepStarted.CompareAndSwap(false, true) {
		return
	}

	b.wg.Add(1)
	go b.sweepLoop()
}

func (b *Bucket) sweepLoop() {
	defer b.wg.Done()

	ticker := time.NewTicker(b.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-b.ctx.Done():
			return
		case <-ticker.C:
			start := time.Now()
			removed := b.sweepOnce()
			if b.onSweep != nil {
				b.onSweep(removed, time.Since(start))
			}
		}
	}
}

// sweepOnce removes every entry whose lifetime has elapsed and returns the
// number removed. The pass sees a point-in-time view of the bucket: entries
// written while the pass runs are caught by a later pass.
func (b *Bucket) sweepOnce() int {
	ttl := b.ttlMillis.Load()
	if ttl <= 0 {
		return 0
	}
	now := time.Now().UnixMilli()

	b.mu.Lock()
	defer b.mu.Unlock()

	expired := make([]*list.Element, 0, 32)
	for elem := b.ll.Back(); elem != nil; elem = elem.Prev() {
		n := elem.Value.(*node)
		if !n.entry.expiredAt(now, ttl) {
			// The list is ordered by creation time, oldest at the back.
			// The first live entry ends the scan.
			break
		}
		expired = append(expired, elem)
	}

	for _, elem := range expired {
		b.removeElementLocked(elem)
	}

	return len(expired)
}
