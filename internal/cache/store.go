package cache

import (
	"sync"
	"time"
)

// Entry is a stored value plus the metadata needed to judge its freshness.
// Entries are replaced wholesale, never mutated in place.
type Entry[V any] struct {
	Key      string
	Value    V
	StoredAt time.Time
	Class    TTLClass
}

// Store is an in-process, TTL-classed key/value store. Entries live until
// overwritten; there is no eviction or background sweeping.
type Store[V any] struct {
	ttl TTLSet
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]Entry[V]
}

// StoreOption customises a Store.
type StoreOption func(*storeOptions)

type storeOptions struct {
	now func() time.Time
}

// WithClock overrides the time source used to stamp and age entries.
func WithClock(now func() time.Time) StoreOption {
	return func(o *storeOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// NewStore constructs an empty store resolving classes through ttl.
func NewStore[V any](ttl TTLSet, opts ...StoreOption) *Store[V] {
	o := &storeOptions{now: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	return &Store[V]{
		ttl:     ttl,
		now:     o.now,
		entries: make(map[string]Entry[V]),
	}
}

// Get returns the value for key if it is still within its TTL window.
func (s *Store[V]) Get(key string) (V, bool) {
	entry, ok := s.Entry(key)
	if !ok {
		var zero V
		return zero, false
	}
	return entry.Value, true
}

// Entry returns the full entry for key if it is still fresh.
func (s *Store[V]) Entry(key string) (Entry[V], bool) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok || !s.fresh(entry) {
		return Entry[V]{}, false
	}
	return entry, true
}

// GetStale returns the entry for key regardless of age. It is the explicit
// stale-fallback read; regular lookups go through Get.
func (s *Store[V]) GetStale(key string) (Entry[V], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[key]
	return entry, ok
}

// Put stores value under key stamped with the current time, replacing any prior entry.
func (s *Store[V]) Put(key string, value V, class TTLClass) Entry[V] {
	entry := Entry[V]{
		Key:      key,
		Value:    value,
		StoredAt: s.now(),
		Class:    class,
	}
	s.mu.Lock()
	s.entries[key] = entry
	s.mu.Unlock()
	return entry
}

// IsFresh reports whether an entry exists and is younger than its class duration.
func (s *Store[V]) IsFresh(key string) bool {
	_, ok := s.Entry(key)
	return ok
}

// Len reports how many entries are held, fresh or not.
func (s *Store[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// TTL returns the duration the store applies to class.
func (s *Store[V]) TTL(class TTLClass) time.Duration {
	return s.ttl.Duration(class)
}

func (s *Store[V]) fresh(entry Entry[V]) bool {
	return s.now().Sub(entry.StoredAt) < s.ttl.Duration(entry.Class)
}
