package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const draftLockPrefix = "lock:planner:draft:"

// releaseScript deletes the lock only while it still carries the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockStore hands out per-draft write locks. Each lock holds a random token so
// a holder whose lock already expired cannot release a successor's lock.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

// AcquireDraftLock takes the write lock of a draft. It returns the token to
// release with, and ok=false when another request holds the lock.
func (s *LockStore) AcquireDraftLock(ctx context.Context, draftID string, ttl time.Duration) (string, bool, error) {
	token := uuid.New().String()
	ok, err := s.client.SetNX(ctx, draftLockPrefix+draftID, token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// ReleaseDraftLock releases the lock if token still owns it.
func (s *LockStore) ReleaseDraftLock(ctx context.Context, draftID, token string) error {
	return releaseScript.Run(ctx, s.client, []string{draftLockPrefix + draftID}, token).Err()
}
