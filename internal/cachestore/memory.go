package cachestore

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Memory is an in-process Store with TTL semantics. It backs tests and lets
// the engine run without Redis, at the cost of single-process durability.
type Memory struct {
	values   map[string]memoryEntry
	counters map[string]*counterEntry
	mu       sync.RWMutex
	now      func() time.Time
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time // zero means no expiration
}

type counterEntry struct {
	fields    map[string]int64
	expiresAt time.Time
}

// NewMemory creates an in-memory store.
func NewMemory() *Memory {
	return &Memory{
		values:   make(map[string]memoryEntry),
		counters: make(map[string]*counterEntry),
		now:      time.Now,
	}
}

// SetNowFunc overrides the clock, for TTL tests.
func (m *Memory) SetNowFunc(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

func (m *Memory) expired(at time.Time) bool {
	return !at.IsZero() && !m.now().Before(at)
}

// Get implements Store.
func (m *Memory) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	m.mu.RLock()
	entry, ok := m.values[key]
	m.mu.RUnlock()

	if !ok || m.expired(entry.expiresAt) {
		return false, nil
	}
	if err := decodeValue(entry.data, dest); err != nil {
		return false, err
	}
	return true, nil
}

// Set implements Store.
func (m *Memory) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := encodeValue(value)
	if err != nil {
		return err
	}

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.values[key] = memoryEntry{data: data, expiresAt: expiresAt}
	m.mu.Unlock()
	return nil
}

// Delete implements Store.
func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.values, key)
	delete(m.counters, key)
	m.mu.Unlock()
	return nil
}

// IncrField implements Store.
func (m *Memory) IncrField(ctx context.Context, key, field string, delta int64, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.counters[key]
	if ok && m.expired(entry.expiresAt) {
		ok = false
	}
	if !ok {
		entry = &counterEntry{fields: make(map[string]int64)}
		if ttl > 0 {
			entry.expiresAt = m.now().Add(ttl)
		}
		m.counters[key] = entry
	}

	entry.fields[field] += delta
	return entry.fields[field], nil
}

// Counters implements Store.
func (m *Memory) Counters(ctx context.Context, key string) (map[string]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.counters[key]
	if !ok || m.expired(entry.expiresAt) {
		return map[string]int64{}, nil
	}

	out := make(map[string]int64, len(entry.fields))
	for k, v := range entry.fields {
		out[k] = v
	}
	return out, nil
}

// ScanKeys implements Store.
func (m *Memory) ScanKeys(ctx context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var keys []string
	for key, entry := range m.values {
		if strings.HasPrefix(key, prefix) && !m.expired(entry.expiresAt) {
			keys = append(keys, key)
		}
	}
	for key, entry := range m.counters {
		if strings.HasPrefix(key, prefix) && !m.expired(entry.expiresAt) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// Cleanup removes expired entries. Called opportunistically by the owner;
// reads already treat expired entries as absent.
func (m *Memory) Cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, entry := range m.values {
		if m.expired(entry.expiresAt) {
			delete(m.values, key)
		}
	}
	for key, entry := range m.counters {
		if m.expired(entry.expiresAt) {
			delete(m.counters, key)
		}
	}
}
