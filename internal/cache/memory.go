package cache

import (
	"strings"
	"sync"
	"time"
)

// Clock supplies the current time; tests replace it to step past TTLs
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// Memory is an in-process map whose entries expire after a fixed TTL
type Memory[V any] struct {
	mu      sync.RWMutex
	ttl     time.Duration
	clock   Clock
	entries map[string]entry[V]
}

// NewMemory creates an empty cache. A nil clock means SystemClock.
func NewMemory[V any](ttl time.Duration, clock Clock) *Memory[V] {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Memory[V]{
		ttl:     ttl,
		clock:   clock,
		entries: make(map[string]entry[V]),
	}
}

// Get returns the value and the time it was stored, if still fresh
func (m *Memory[V]) Get(key string) (V, time.Time, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	var zero V
	if !ok {
		return zero, time.Time{}, false
	}
	if m.expired(e) {
		m.mu.Lock()
		// re-check, a concurrent Set may have refreshed it
		if cur, ok := m.entries[key]; ok && m.expired(cur) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return zero, time.Time{}, false
	}
	return e.value, e.storedAt, true
}

// Set stores value, replacing any previous entry for key
func (m *Memory[V]) Set(key string, value V) {
	m.mu.Lock()
	m.entries[key] = entry[V]{value: value, storedAt: m.clock.Now()}
	m.mu.Unlock()
}

// Delete removes key
func (m *Memory[V]) Delete(key string) {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
}

// DeletePrefix removes every key starting with prefix and returns how many went
func (m *Memory[V]) DeletePrefix(prefix string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			delete(m.entries, k)
			n++
		}
	}
	return n
}

// Purge evicts expired entries and returns how many were removed
func (m *Memory[V]) Purge() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for k, e := range m.entries {
		if m.expired(e) {
			delete(m.entries, k)
			n++
		}
	}
	return n
}

// Len returns the number of stored entries, expired ones included
func (m *Memory[V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Memory[V]) expired(e entry[V]) bool {
	return m.ttl > 0 && !m.clock.Now().Before(e.storedAt.Add(m.ttl))
}
