// Package addrcache persists resolved building names keyed by full address.
//
// Entries never expire: a value written once is returned verbatim for the same
// address within and across runs, failure sentinels included. Stores hold the
// working set in memory; Load refreshes it from backing storage and Flush
// writes it back. Concurrent runs against one backing store are not supported.
package addrcache

import (
	"context"
	"sort"
	"sync"
)

// Store is a string key-value cache with explicit load and flush.
type Store interface {
	// Load replaces the in-memory view with the backing storage contents.
	Load(ctx context.Context) error

	// Get returns the cached value for key.
	Get(key string) (string, bool)

	// Set records value for key. It is not persisted until Flush.
	Set(key, value string)

	// Flush persists every entry written since the last Load or Flush.
	Flush(ctx context.Context) error

	// Len returns the number of entries in the in-memory view.
	Len() int

	// Snapshot returns a copy of the in-memory view.
	Snapshot() map[string]string

	// Close releases backing resources.
	Close() error
}

// entries is the in-memory map shared by every backend.
type entries struct {
	mu    sync.RWMutex
	data  map[string]string
	dirty map[string]struct{}
}

func newEntries() entries {
	return entries{
		data:  make(map[string]string),
		dirty: make(map[string]struct{}),
	}
}

func (e *entries) Get(key string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.data[key]
	return v, ok
}

func (e *entries) Set(key, value string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.data[key] = value
	e.dirty[key] = struct{}{}
}

func (e *entries) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.data)
}

// replace swaps in freshly loaded data and clears the dirty set.
func (e *entries) replace(data map[string]string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if data == nil {
		data = make(map[string]string)
	}
	e.data = data
	e.dirty = make(map[string]struct{})
}

// entry is one key-value pair awaiting persistence.
type entry struct {
	key   string
	value string
}

// pending returns the dirty entries sorted by key.
func (e *entries) pending() []entry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]entry, 0, len(e.dirty))
	for k := range e.dirty {
		out = append(out, entry{key: k, value: e.data[k]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].key < out[j].key })
	return out
}

func (e *entries) Snapshot() map[string]string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]string, len(e.data))
	for k, v := range e.data {
		out[k] = v
	}
	return out
}

func (e *entries) markClean() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dirty = make(map[string]struct{})
}

// MemoryStore is a Store with no backing storage.
type MemoryStore struct {
	entries
	flushes int
}

// NewMemory creates a MemoryStore seeded with the given entries.
func NewMemory(seed map[string]string) *MemoryStore {
	m := &MemoryStore{entries: newEntries()}
	for k, v := range seed {
		m.data[k] = v
	}
	return m
}

// Load is a no-op; the in-memory view is the storage.
func (m *MemoryStore) Load(context.Context) error { return nil }

// Flush clears the dirty set and counts the call.
func (m *MemoryStore) Flush(context.Context) error {
	m.markClean()
	m.flushes++
	return nil
}

// Flushes returns how many times Flush was called.
func (m *MemoryStore) Flushes() int { return m.flushes }

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }
