package redis

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/funayamateppei/local-rag-comparator/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.IngestLock = (*Lock)(nil)

const lockPrefix = "ragcompare:lock:"

// Lock implements IngestLock with SET NX and a TTL.
// The value is an owner ID so one instance cannot release another's lock.
type Lock struct {
	client  redis.UniversalClient
	ownerID string
}

// NewLock creates a lock holder with a generated owner ID
func NewLock(client redis.UniversalClient) *Lock {
	return &Lock{
		client:  client,
		ownerID: generateOwnerID(),
	}
}

// generateOwnerID formats hostname:pid:random
func generateOwnerID() string {
	hostname, _ := os.Hostname()
	randomBytes := make([]byte, 8)
	_, _ = rand.Read(randomBytes)
	return fmt.Sprintf("%s:%d:%s", hostname, os.Getpid(), hex.EncodeToString(randomBytes))
}

// Acquire claims key for ttl
func (l *Lock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, lockPrefix+key, l.ownerID, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	return ok, nil
}

// releaseScript deletes the key only while it still holds our owner ID.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	end
	return 0
`)

// Release frees key if this instance owns it
func (l *Lock) Release(ctx context.Context, key string) error {
	err := releaseScript.Run(ctx, l.client, []string{lockPrefix + key}, l.ownerID).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release lock %s: %w", key, err)
	}
	return nil
}

// OwnerID identifies this holder in logs
func (l *Lock) OwnerID() string {
	return l.ownerID
}
