package redis

import (
	"context"
	"time"
)

// DraftStoreInterface defines the interface for trip-builder draft storage.
type DraftStoreInterface interface {
	SaveDraft(ctx context.Context, draft *StoredDraft, ttl time.Duration) error
	GetDraft(ctx context.Context, id string) (*StoredDraft, error)
	DeleteDraft(ctx context.Context, id string) error
}

// LockStoreInterface defines the interface for per-draft write locks.
type LockStoreInterface interface {
	AcquireDraftLock(ctx context.Context, draftID string, ttl time.Duration) (token string, ok bool, err error)
	ReleaseDraftLock(ctx context.Context, draftID, token string) error
}

// ResponseCacheInterface defines the interface for idempotent response replay.
type ResponseCacheInterface interface {
	GetResponse(ctx context.Context, key string) (*CachedResponse, error)
	SetResponse(ctx context.Context, key string, resp *CachedResponse, ttl time.Duration) error
}

// Ensure concrete types implement interfaces.
var (
	_ DraftStoreInterface    = (*DraftStore)(nil)
	_ LockStoreInterface     = (*LockStore)(nil)
	_ ResponseCacheInterface = (*ResponseCache)(nil)
)
