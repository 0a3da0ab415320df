// Package store abstracts the key-value engine the settlement core
// persists into: point get/put/has over byte keys, a prefix-namespaced
// record map, a uint64 counter and a singleton scalar slot. Writes are
// buffered per call through Staged so a failed call leaves no trace.
package store

import (
	"encoding/binary"
	"errors"
	"sync"
)

// ErrClosed reports use of a backend after Close.
var ErrClosed = errors.New("store: closed")

// Store is the point access surface of the backing engine. No whole-map
// iteration is offered or required.
type Store interface {
	// Get returns the value at key and whether it exists.
	Get(key []byte) ([]byte, bool, error)
	// Put writes the value at key, overwriting any existing value.
	Put(key, value []byte) error
	// Has reports whether key exists.
	Has(key []byte) (bool, error)
}

// MemStore is an in-memory Store. Reads may run concurrently; the
// dispatcher serializes writes.
type MemStore struct {
	mu sync.RWMutex
	m  map[string][]byte
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{m: make(map[string][]byte)}
}

// Get returns the value at key.
func (s *MemStore) Get(key []byte) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[string(key)]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

// Put writes the value at key.
func (s *MemStore) Put(key, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	s.m[string(key)] = v
	return nil
}

// Has reports whether key exists.
func (s *MemStore) Has(key []byte) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.m[string(key)]
	return ok, nil
}

// Len returns the number of stored keys.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}

// Map is a record map living under a key prefix of a Store.
type Map struct {
	s      Store
	prefix []byte
}

// NewMap namespaces a Store under prefix.
func NewMap(s Store, prefix []byte) *Map {
	p := make([]byte, len(prefix))
	copy(p, prefix)
	return &Map{s: s, prefix: p}
}

func (m *Map) key(k []byte) []byte {
	out := make([]byte, 0, len(m.prefix)+len(k))
	out = append(out, m.prefix...)
	return append(out, k...)
}

// Get returns the record at k.
func (m *Map) Get(k []byte) ([]byte, bool, error) {
	return m.s.Get(m.key(k))
}

// Put writes the record at k.
func (m *Map) Put(k, v []byte) error {
	return m.s.Put(m.key(k), v)
}

// Has reports whether the record at k exists.
func (m *Map) Has(k []byte) (bool, error) {
	return m.s.Has(m.key(k))
}

// Counter is a persisted monotonic uint64 slot.
type Counter struct {
	s   Store
	key []byte
}

// NewCounter binds a counter to key in s.
func NewCounter(s Store, key []byte) *Counter {
	k := make([]byte, len(key))
	copy(k, key)
	return &Counter{s: s, key: k}
}

// Get reads the counter, zero if unset.
func (c *Counter) Get() (uint64, error) {
	v, ok, err := c.s.Get(c.key)
	if err != nil {
		return 0, err
	}
	if !ok || len(v) != 8 {
		return 0, nil
	}
	return binary.LittleEndian.Uint64(v), nil
}

// Set writes the counter.
func (c *Counter) Set(v uint64) error {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, v)
	return c.s.Put(c.key, buf)
}

// Add increments the counter by delta and returns the new value.
func (c *Counter) Add(delta uint64) (uint64, error) {
	v, err := c.Get()
	if err != nil {
		return 0, err
	}
	v += delta
	if err := c.Set(v); err != nil {
		return 0, err
	}
	return v, nil
}

// Value is a persisted singleton scalar slot.
type Value struct {
	s   Store
	key []byte
}

// NewValue binds a scalar slot to key in s.
func NewValue(s Store, key []byte) *Value {
	k := make([]byte, len(key))
	copy(k, key)
	return &Value{s: s, key: k}
}

// Get reads the slot.
func (v *Value) Get() ([]byte, bool, error) {
	return v.s.Get(v.key)
}

// Set writes the slot.
func (v *Value) Set(b []byte) error {
	return v.s.Put(v.key, b)
}
