package cache

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// Memo remembers successful results for the lifetime of a run. There is no TTL and no
// eviction. Concurrent callers asking for the same key share one call to fn; errors
// are returned to every waiter and are not remembered.
type Memo[V any] struct {
	mu     sync.RWMutex
	values map[string]V
	group  singleflight.Group
	hits   int
	misses int
}

func NewMemo[V any]() *Memo[V] {
	return &Memo[V]{values: make(map[string]V)}
}

// Do returns the remembered value for key, or calls fn and remembers its result.
func (m *Memo[V]) Do(key string, fn func() (V, error)) (V, error) {
	m.mu.RLock()
	if v, ok := m.values[key]; ok {
		m.mu.RUnlock()
		m.count(true)
		return v, nil
	}
	m.mu.RUnlock()

	res, err, _ := m.group.Do(key, func() (any, error) {
		// Double-check: another flight may have finished between the read and Do.
		m.mu.RLock()
		if v, ok := m.values[key]; ok {
			m.mu.RUnlock()
			return v, nil
		}
		m.mu.RUnlock()

		m.count(false)
		v, err := fn()
		if err != nil {
			return v, err
		}
		m.mu.Lock()
		m.values[key] = v
		m.mu.Unlock()
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(V), nil
}

// Get returns a remembered value without calling anything.
func (m *Memo[V]) Get(key string) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

// Stats returns hit and miss counts. A miss is one call to fn.
func (m *Memo[V]) Stats() (hits, misses int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hits, m.misses
}

func (m *Memo[V]) count(hit bool) {
	m.mu.Lock()
	if hit {
		m.hits++
	} else {
		m.misses++
	}
	m.mu.Unlock()
}
