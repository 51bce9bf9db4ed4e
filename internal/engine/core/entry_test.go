package core

import (
	"testing"
	"time"
)

func TestEntryCopiesValue(t *testing.T) {
	src := []byte("payload")
	e := NewEntry(src)

	src[0] = 'X'
	if string(e.Value()) != "payload" {
		t.Fatalf("entry shares memory with caller buffer: %s", e.Value())
	}

	got := e.Value()
	got[0] = 'Y'
	if string(e.Value()) != "payload" {
		t.Fatalf("accessor leaked internal buffer: %s", e.Value())
	}
}

func TestEntryTimestamp(t *testing.T) {
	before := time.Now().UnixMilli()
	e := NewEntry([]byte("v"))
	after := time.Now().UnixMilli()

	ts := e.CreatedAtMillis()
	if ts < before || ts > after {
		t.Fatalf("createdAt %d outside [%d, %d]", ts, before, after)
	}

	if e.CreatedAt().UnixMilli() != ts {
		t.Fatalf("CreatedAt and CreatedAtMillis disagree")
	}
}

func TestEntryExpiry(t *testing.T) {
	e := NewEntry([]byte("v"))
	now := e.CreatedAtMillis()

	if e.expiredAt(now+50, 100) {
		t.Fatalf("entry expired before its lifetime elapsed")
	}
	if !e.expiredAt(now+101, 100) {
		t.Fatalf("entry not expired after its lifetime elapsed")
	}
	if e.expiredAt(now+1_000_000, 0) {
		t.Fatalf("entry with no TTL must never expire")
	}
}
