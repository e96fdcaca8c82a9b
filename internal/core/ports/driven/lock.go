package driven

import (
	"context"
	"time"
)

// IngestLock keeps two ingestions of the same file from running at once,
// across goroutines and across instances sharing the backend.
type IngestLock interface {
	// Acquire claims key for ttl. Returns false if another holder has it.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release frees key if this holder still owns it.
	// Safe to call when the lock has already expired.
	Release(ctx context.Context, key string) error
}
