// Package cache holds single-entry, timestamped cache slots with lazy
// expiry. Expiry is evaluated when a slot is read; nothing sweeps in the
// background.
package cache

import (
	"sync"
	"time"
)

// Slot caches one value together with the time it was stored. The zero
// value is an empty slot ready for use. Safe for concurrent use.
type Slot[V any] struct {
	mu       sync.Mutex
	value    V
	storedAt time.Time
	filled   bool
}

// Valid reports whether an entry stored at storedAt is still valid at
// now: its age must not exceed expiration.
func Valid(storedAt, now time.Time, expiration time.Duration) bool {
	return now.Sub(storedAt) <= expiration
}

// Get returns the cached value if the slot is filled and the entry is
// still valid at now. An expired entry is left in place and reported as
// a miss.
func (s *Slot[V]) Get(now time.Time, expiration time.Duration) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.filled || !Valid(s.storedAt, now, expiration) {
		var zero V
		return zero, false
	}
	return s.value, true
}

// Put stores v at time at, overwriting any previous entry.
func (s *Slot[V]) Put(v V, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = v
	s.storedAt = at
	s.filled = true
}

// Clear empties the slot.
func (s *Slot[V]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero V
	s.value = zero
	s.storedAt = time.Time{}
	s.filled = false
}

// StoredAt returns the entry timestamp, or false when the slot is empty.
func (s *Slot[V]) StoredAt() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.storedAt, s.filled
}

// Timestamped is implemented by every Slot regardless of its value type.
type Timestamped interface {
	StoredAt() (time.Time, bool)
}

// Stats summarizes a set of slots at a point in time.
type Stats struct {
	TotalEntries   int
	ValidEntries   int
	ExpiredEntries int

	// Oldest and Newest are the extreme entry timestamps; zero when
	// there are no entries.
	Oldest time.Time
	Newest time.Time
}

// Summarize computes Stats for slots as of now.
func Summarize(now time.Time, expiration time.Duration, slots ...Timestamped) Stats {
	var st Stats
	for _, slot := range slots {
		at, ok := slot.StoredAt()
		if !ok {
			continue
		}
		st.TotalEntries++
		if Valid(at, now, expiration) {
			st.ValidEntries++
		} else {
			st.ExpiredEntries++
		}
		if st.Oldest.IsZero() || at.Before(st.Oldest) {
			st.Oldest = at
		}
		if at.After(st.Newest) {
			st.Newest = at
		}
	}
	return st
}
