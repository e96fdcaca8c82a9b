package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/funayamateppei/local-rag-comparator/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.IngestLock = (*AdvisoryLock)(nil)

// AdvisoryLock implements IngestLock with PostgreSQL session advisory locks.
//
// Advisory locks belong to a connection, so every held key pins its own
// *sql.Conn until Release. The TTL is ignored: the lock lasts until Release
// or until the connection drops. Used when Redis is not configured.
type AdvisoryLock struct {
	db *DB

	mu    sync.Mutex
	conns map[string]*sql.Conn
}

// NewAdvisoryLock creates a new PostgreSQL advisory lock adapter.
func NewAdvisoryLock(db *DB) *AdvisoryLock {
	return &AdvisoryLock{db: db, conns: make(map[string]*sql.Conn)}
}

// hashLockName maps a key to the 64-bit advisory lock ID using FNV-1a.
func hashLockName(name string) int64 {
	h := fnv.New64a()
	h.Write([]byte("ragcompare:lock:" + name))
	return int64(h.Sum64())
}

// Acquire tries pg_try_advisory_lock on a dedicated connection.
func (l *AdvisoryLock) Acquire(ctx context.Context, key string, _ time.Duration) (bool, error) {
	l.mu.Lock()
	_, held := l.conns[key]
	l.mu.Unlock()
	if held {
		return false, nil
	}

	conn, err := l.db.Conn(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", key, err)
	}

	var acquired bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", hashLockName(key)).Scan(&acquired); err != nil {
		_ = conn.Close()
		return false, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !acquired {
		_ = conn.Close()
		return false, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, held := l.conns[key]; held {
		// Lost a race with another goroutine of this process.
		_, _ = conn.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", hashLockName(key))
		_ = conn.Close()
		return false, nil
	}
	l.conns[key] = conn
	return true, nil
}

// Release unlocks key and returns its connection to the pool.
// Releasing a key this instance does not hold is a no-op.
func (l *AdvisoryLock) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	conn, ok := l.conns[key]
	delete(l.conns, key)
	l.mu.Unlock()
	if !ok {
		return nil
	}
	defer conn.Close()

	var released bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_advisory_unlock($1)", hashLockName(key)).Scan(&released); err != nil {
		return fmt.Errorf("release lock %s: %w", key, err)
	}
	return nil
}

// Held returns the number of keys this instance currently holds.
func (l *AdvisoryLock) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.conns)
}
