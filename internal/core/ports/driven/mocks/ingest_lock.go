package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/funayamateppei/local-rag-comparator/internal/core/ports/driven"
)

var _ driven.IngestLock = (*MockIngestLock)(nil)

// MockIngestLock is a mock implementation of IngestLock for testing.
// It tracks keys with TTL in memory and supports custom behavior injection.
type MockIngestLock struct {
	mu    sync.Mutex
	locks map[string]lockEntry

	AcquireFn func(key string, ttl time.Duration) (bool, error)
	ReleaseFn func(key string) error

	acquired int
	released int
}

type lockEntry struct {
	owner  string
	expiry time.Time
}

// NewMockIngestLock creates a new mock ingest lock.
func NewMockIngestLock() *MockIngestLock {
	return &MockIngestLock{
		locks: make(map[string]lockEntry),
	}
}

func (m *MockIngestLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if m.AcquireFn != nil {
		return m.AcquireFn(key, ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if entry, exists := m.locks[key]; exists && time.Now().Before(entry.expiry) {
		return false, nil
	}

	m.locks[key] = lockEntry{
		owner:  "mock-owner",
		expiry: time.Now().Add(ttl),
	}
	m.acquired++
	return true, nil
}

func (m *MockIngestLock) Release(ctx context.Context, key string) error {
	if m.ReleaseFn != nil {
		return m.ReleaseFn(key)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.locks, key)
	m.released++
	return nil
}

// IsHeld checks if a key is currently held (for test assertions).
func (m *MockIngestLock) IsHeld(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	return exists && time.Now().Before(entry.expiry)
}

// SetLockHeld forces a key to be held by another owner (for test setup).
func (m *MockIngestLock) SetLockHeld(key string, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.locks[key] = lockEntry{
		owner:  "external-owner",
		expiry: time.Now().Add(ttl),
	}
}

// Counts returns how many successful acquires and releases were recorded.
func (m *MockIngestLock) Counts() (acquired, released int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acquired, m.released
}
