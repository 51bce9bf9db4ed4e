// File: internal/engine/core/entry.go
package core

import "time"

// Entry is an immutable value wrapper stamped with its creation time.
// Overwriting a key always builds a new Entry; nothing mutates one in place,
// so a reader can never observe an old value with a fresh timestamp.
type Entry struct {
	value     []byte
	createdAt int64 // unix milliseconds
}

// NewEntry copies value so later caller mutations cannot leak into the store.
func NewEntry(value []byte) *Entry {
	v := make([]byte, len(value))
	copy(v, value)

	return &Entry{
		value:     v,
		createdAt: time.Now().UnixMilli(),
	}
}

// Value returns a copy of the payload.
func (e *Entry) Value() []byte {
	v := make([]byte, len(e.value))
	copy(v, e.value)
	return v
}

// CreatedAt returns the creation timestamp.
func (e *Entry) CreatedAt() time.Time {
	return time.UnixMilli(e.createdAt)
}

// CreatedAtMillis returns the raw creation timestamp in unix milliseconds.
func (e *Entry) CreatedAtMillis() int64 {
	return e.createdAt
}

// expiredAt reports whether the entry is past its lifetime at nowMillis.
// ttlMillis <= 0 means the entry never expires.
func (e *Entry) expiredAt(nowMillis, ttlMillis int64) bool {
	return ttlMillis > 0 && nowMillis > e.createdAt+ttlMillis
}
