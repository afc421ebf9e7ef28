package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"sangihetrip/internal/tripbuilder"
)

// ErrNotFound is returned when a key does not exist or has expired.
var ErrNotFound = errors.New("not found")

const draftPrefix = "planner:draft:"

// StoredDraft is a trip-builder wizard persisted between requests.
type StoredDraft struct {
	ID        string            `json:"id"`
	Owner     string            `json:"owner"`
	State     tripbuilder.State `json:"state"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// DraftStore keeps wizard drafts in Redis. Every save refreshes the TTL, so
// abandoned drafts disappear on their own.
type DraftStore struct {
	client *redis.Client
}

// NewDraftStore creates a new DraftStore.
func NewDraftStore(client *redis.Client) *DraftStore {
	return &DraftStore{client: client}
}

// SaveDraft stores the draft under its id.
func (s *DraftStore) SaveDraft(ctx context.Context, draft *StoredDraft, ttl time.Duration) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("encode draft %s: %w", draft.ID, err)
	}
	return s.client.Set(ctx, draftPrefix+draft.ID, data, ttl).Err()
}

// GetDraft loads a draft. It returns ErrNotFound for unknown or expired ids.
func (s *DraftStore) GetDraft(ctx context.Context, id string) (*StoredDraft, error) {
	data, err := s.client.Get(ctx, draftPrefix+id).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var draft StoredDraft
	if err := json.Unmarshal(data, &draft); err != nil {
		return nil, fmt.Errorf("decode draft %s: %w", id, err)
	}
	return &draft, nil
}

// DeleteDraft removes a draft.
func (s *DraftStore) DeleteDraft(ctx context.Context, id string) error {
	return s.client.Del(ctx, draftPrefix+id).Err()
}
