// Package stores provides the in-memory TTL stores behind the cache manager.
package stores

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLStore is a concurrency-safe map whose entries expire after a fixed TTL.
type TTLStore[V any] struct {
	mu      sync.RWMutex
	name    string
	ttl     time.Duration
	entries map[string]entry[V]
	now     func() time.Time
	hits    uint64
	misses  uint64
}

func NewTTLStore[V any](name string, ttl time.Duration) *TTLStore[V] {
	return &TTLStore[V]{name: name, ttl: ttl, entries: make(map[string]entry[V]), now: time.Now}
}

func (s *TTLStore[V]) Name() string { return s.name }

func (s *TTLStore[V]) Get(key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok || !s.now().Before(e.expiresAt) {
		s.misses++
		var zero V
		return zero, false
	}
	s.hits++
	return e.value, true
}

func (s *TTLStore[V]) Set(key string, value V) {
	s.mu.Lock()
	s.entries[key] = entry[V]{value: value, expiresAt: s.now().Add(s.ttl)}
	s.mu.Unlock()
}

func (s *TTLStore[V]) Delete(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

// PurgeExpired drops every entry expired at now and returns how many.
func (s *TTLStore[V]) PurgeExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, k)
			n++
		}
	}
	return n
}

// Stats is a point-in-time view of one store.
type Stats struct {
	Name    string `json:"name"`
	Entries int    `json:"entries"`
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
}

func (s *TTLStore[V]) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{Name: s.name, Entries: len(s.entries), Hits: s.hits, Misses: s.misses}
}
