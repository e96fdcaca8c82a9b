package redis

import (
	"context"
	"testing"
	"time"
)

func TestNewLock_UniqueOwners(t *testing.T) {
	client, _ := setupTestRedis(t)

	lock1 := NewLock(client)
	lock2 := NewLock(client)

	if lock1.OwnerID() == "" {
		t.Error("expected non-empty owner ID")
	}
	if lock1.OwnerID() == lock2.OwnerID() {
		t.Errorf("expected unique owner IDs, got same: %s", lock1.OwnerID())
	}
}

func TestLock_AcquireIsExclusive(t *testing.T) {
	client, _ := setupTestRedis(t)
	ctx := context.Background()
	lock1 := NewLock(client)
	lock2 := NewLock(client)

	acquired, err := lock1.Acquire(ctx, "ingest:abc", 10*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !acquired {
		t.Fatal("expected first holder to acquire")
	}

	acquired, err = lock2.Acquire(ctx, "ingest:abc", 10*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acquired {
		t.Error("expected second holder to be refused")
	}

	acquired, err = lock1.Acquire(ctx, "ingest:abc", 10*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acquired {
		t.Error("expected the lock not to be reentrant")
	}
}

func TestLock_ReleaseOnlyByOwner(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()
	owner := NewLock(client)
	other := NewLock(client)

	if ok, _ := owner.Acquire(ctx, "ingest:abc", 10*time.Second); !ok {
		t.Fatal("expected to acquire lock")
	}

	if err := other.Release(ctx, "ingest:abc"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !mr.Exists(lockPrefix + "ingest:abc") {
		t.Fatal("lock released by a non-owner")
	}

	if err := owner.Release(ctx, "ingest:abc"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mr.Exists(lockPrefix + "ingest:abc") {
		t.Error("expected owner release to delete the key")
	}

	if ok, _ := other.Acquire(ctx, "ingest:abc", 10*time.Second); !ok {
		t.Error("expected lock to be free after release")
	}
}

func TestLock_ReleaseUnheld(t *testing.T) {
	client, _ := setupTestRedis(t)

	if err := NewLock(client).Release(context.Background(), "never-held"); err != nil {
		t.Errorf("unexpected error releasing unheld lock: %v", err)
	}
}

func TestLock_Expires(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()
	lock1 := NewLock(client)
	lock2 := NewLock(client)

	if ok, _ := lock1.Acquire(ctx, "ingest:ttl", time.Second); !ok {
		t.Fatal("expected to acquire lock")
	}

	mr.FastForward(2 * time.Second)

	if ok, _ := lock2.Acquire(ctx, "ingest:ttl", time.Second); !ok {
		t.Error("expected lock to be free after TTL")
	}
}
