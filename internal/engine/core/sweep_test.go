package core

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTTLExpiration(t *testing.T) {
	// ttl=50ms: get shortly after insert succeeds, a sweep pass
	// past the deadline removes the key.
	b := NewBucketWithConfig(BucketConfig{
		Capacity:      8,
		TTL:           50 * time.Millisecond,
		SweepInterval: 20 * time.Millisecond,
	})
	defer b.Close()

	b.Set("x", []byte("v"))

	if _, ok := b.Get("x"); !ok {
		t.Fatalf("expected key present immediately after set")
	}

	time.Sleep(150 * time.Millisecond)

	if _, ok := b.Get("x"); ok {
		t.Fatalf("expected key swept after ttl elapsed")
	}
	if b.Len() != 0 {
		t.Fatalf("sweep left %d entries behind", b.Len())
	}
}

func TestNoTTLNeverExpires(t *testing.T) {
	b := NewBucketWithConfig(BucketConfig{
		Capacity:      8,
		SweepInterval: 10 * time.Millisecond,
	})
	defer b.Close()

	b.Set("forever", []byte("v"))
	time.Sleep(60 * time.Millisecond)

	if _, ok := b.Get("forever"); !ok {
		t.Fatalf("entry expired with no TTL configured")
	}
}

func TestSetTTLLaunchesSweep(t *testing.T) {
	b := NewBucketWithConfig(BucketConfig{
		Capacity:      8,
		SweepInterval: 20 * time.Millisecond,
	})
	defer b.Close()

	b.Set("x", []byte("v"))

	if b.TTL() != 0 {
		t.Fatalf("new bucket should have no TTL, got %v", b.TTL())
	}

	if err := b.SetTTL(40 * time.Millisecond); err != nil {
		t.Fatalf("setTTL failed: %v", err)
	}
	if b.TTL() != 40*time.Millisecond {
		t.Fatalf("ttl not stored: %v", b.TTL())
	}

	time.Sleep(150 * time.Millisecond)

	if _, ok := b.Get("x"); ok {
		t.Fatalf("sweep launched by SetTTL did not collect expired key")
	}
}

func TestSetTTLUpdatesThresholdWithoutRestart(t *testing.T) {
	sweeps := new(atomic.Int64)
	b := NewBucketWithConfig(BucketConfig{
		Capacity:      8,
		TTL:           time.Hour,
		SweepInterval: 20 * time.Millisecond,
		OnSweep: func(removed int, took time.Duration) {
			sweeps.Add(1)
		},
	})
	defer b.Close()

	b.Set("x", []byte("v"))

	// Second SetTTL only swaps the threshold; the running sweeper picks
	// the new value up on its next pass.
	if err := b.SetTTL(30 * time.Millisecond); err != nil {
		t.Fatalf("setTTL failed: %v", err)
	}

	time.Sleep(150 * time.Millisecond)

	if _, ok := b.Get("x"); ok {
		t.Fatalf("tightened ttl not applied by running sweeper")
	}
	if sweeps.Load() == 0 {
		t.Fatalf("expected sweep passes to have run")
	}

	if err := b.SetTTL(0); err != ErrInvalidTTL {
		t.Fatalf("expected ErrInvalidTTL for 0, got %v", err)
	}
}

func TestCloseStopsSweep(t *testing.T) {
	b := NewBucketWithConfig(BucketConfig{
		Capacity:      8,
		TTL:           30 * time.Millisecond,
		SweepInterval: 10 * time.Millisecond,
	})

	b.Close()
	// Safe to call twice.
	b.Close()

	b.Set("x", []byte("v"))
	time.Sleep(100 * time.Millisecond)

	// The sweeper is gone, so the expired entry stays put.
	if _, ok := b.Get("x"); !ok {
		t.Fatalf("entry removed after Close; sweep goroutine still alive")
	}
}

func TestSweepUsesSameRemovalPathAsRemove(t *testing.T) {
	b := NewBucketWithConfig(BucketConfig{
		Capacity:      8,
		TTL:           20 * time.Millisecond,
		SweepInterval: 10 * time.Millisecond,
	})
	defer b.Close()

	for i := 0; i < 5; i++ {
		b.Set(string(rune('a'+i)), []byte("v"))
	}

	time.Sleep(100 * time.Millisecond)

	// After a full sweep the index must be empty too, not just the map.
	if got := b.Keys(); len(got) != 0 {
		t.Fatalf("sweep left index entries behind: %v", got)
	}
	if b.Len() != 0 {
		t.Fatalf("sweep left map entries behind: %d", b.Len())
	}
}
