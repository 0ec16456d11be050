package store

import (
	"context"
	"sync"
	"time"
)

// KV is the key-value boundary the pipeline consumes. Implementations are
// expected to provide at-least-once, last-write-wins semantics; the pipeline
// never assumes distributed locking or transactions from the store.
type KV interface {
	// Get returns the value for key, with found=false for absent or
	// expired keys.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	// Set writes the value with a time-to-live. A ttl of zero means the
	// key does not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// ListKeys returns all live keys that start with prefix
	ListKeys(ctx context.Context, prefix string) ([]string, error)
	// Close releases backend resources
	Close() error
}

// entry is a value with its expiry in the in-memory backend
type entry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

// Memory is an in-memory KV used by tests and single-shot CLI runs
type Memory struct {
	mu   sync.RWMutex
	data map[string]entry
	now  func() time.Time
}

// NewMemory creates an empty in-memory KV
func NewMemory() *Memory {
	return &Memory{
		data: make(map[string]entry),
		now:  time.Now,
	}
}

// Get returns the value for key if present and unexpired
func (m *Memory) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		return nil, false, nil
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, true, nil
}

// Set stores the value under key with the given ttl
func (m *Memory) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := entry{value: make([]byte, len(value))}
	copy(e.value, value)
	if ttl != 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.data[key] = e
	return nil
}

// ListKeys returns all live keys starting with prefix
func (m *Memory) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var keys []string
	for k, e := range m.data {
		if len(k) < len(prefix) || k[:len(prefix)] != prefix {
			continue
		}
		if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
			continue
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// Close is a no-op for the in-memory backend
func (m *Memory) Close() error {
	return nil
}
