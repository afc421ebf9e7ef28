package tests

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"sangihetrip/internal/apiclient"
	"sangihetrip/internal/domain"
	"sangihetrip/internal/redis"
)

// ──────────────────────────────────────────────
// MOCK DRAFT STORE
// ──────────────────────────────────────────────

// MockDraftStore is a mock implementation of DraftStore. Drafts are stored
// as JSON so tests see the same round trip as Redis.
type MockDraftStore struct {
	mu     sync.RWMutex
	drafts map[string][]byte
	ttls   map[string]time.Duration

	// Counters for verification
	SaveCallCount   int32
	DeleteCallCount int32

	// Error injection
	SaveError error
	GetError  error

	// BeforeSave, when set, runs before each save is stored.
	BeforeSave func(draft *redis.StoredDraft)
}

// NewMockDraftStore creates a new mock draft store.
func NewMockDraftStore() *MockDraftStore {
	return &MockDraftStore{
		drafts: make(map[string][]byte),
		ttls:   make(map[string]time.Duration),
	}
}

func (m *MockDraftStore) SaveDraft(ctx context.Context, draft *redis.StoredDraft, ttl time.Duration) error {
	atomic.AddInt32(&m.SaveCallCount, 1)
	if m.SaveError != nil {
		return m.SaveError
	}
	if m.BeforeSave != nil {
		m.BeforeSave(draft)
	}
	data, err := json.Marshal(draft)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drafts[draft.ID] = data
	m.ttls[draft.ID] = ttl
	return nil
}

func (m *MockDraftStore) GetDraft(ctx context.Context, id string) (*redis.StoredDraft, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.drafts[id]
	if !ok {
		return nil, redis.ErrNotFound
	}
	var draft redis.StoredDraft
	if err := json.Unmarshal(data, &draft); err != nil {
		return nil, err
	}
	return &draft, nil
}

func (m *MockDraftStore) DeleteDraft(ctx context.Context, id string) error {
	atomic.AddInt32(&m.DeleteCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, id)
	return nil
}

// TTL returns the TTL of the last save of a draft (for test assertions).
func (m *MockDraftStore) TTL(id string) time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ttls[id]
}

// CountDrafts returns the number of stored drafts.
func (m *MockDraftStore) CountDrafts() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.drafts)
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStore with owner tokens.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]mockLock
	seq   int

	// Counters
	AcquireCallCount int32
	ReleaseCallCount int32

	// Error injection
	AcquireError error

	// Force lock failure
	ForceAcquireFailure bool
}

type mockLock struct {
	token  string
	expiry time.Time
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]mockLock),
	}
}

func (m *MockLockStore) AcquireDraftLock(ctx context.Context, draftID string, ttl time.Duration) (string, bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return "", false, m.AcquireError
	}
	if m.ForceAcquireFailure {
		return "", false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := "lock:planner:draft:" + draftID
	if l, exists := m.locks[key]; exists && time.Now().Before(l.expiry) {
		return "", false, nil
	}
	m.seq++
	token := fmt.Sprintf("token-%d", m.seq)
	m.locks[key] = mockLock{token: token, expiry: time.Now().Add(ttl)}
	return token, true, nil
}

func (m *MockLockStore) ReleaseDraftLock(ctx context.Context, draftID, token string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	key := "lock:planner:draft:" + draftID
	if m.locks[key].token == token {
		delete(m.locks, key)
	}
	return nil
}

// IsLocked checks if a draft is locked (for test assertions).
func (m *MockLockStore) IsLocked(draftID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, exists := m.locks["lock:planner:draft:"+draftID]
	return exists && time.Now().Before(l.expiry)
}

// ──────────────────────────────────────────────
// MOCK BACKEND
// ──────────────────────────────────────────────

// MockBackend is a mock of the REST client that answers trip creation.
type MockBackend struct {
	mu       sync.Mutex
	payloads []domain.TripPayload

	// Counters
	CallCount int32

	// Error injection
	Error error

	// Block, when set, is waited on before answering.
	Block chan struct{}
}

// NewMockBackend creates a new mock backend.
func NewMockBackend() *MockBackend {
	return &MockBackend{}
}

func (m *MockBackend) Do(ctx context.Context, sess apiclient.Session, req apiclient.Request, out any) (*apiclient.Envelope, error) {
	if req.Auth == apiclient.AuthRequired && (sess == nil || sess.AccessToken() == "") {
		return nil, apiclient.ErrNoToken
	}
	n := atomic.AddInt32(&m.CallCount, 1)
	if m.Block != nil {
		<-m.Block
	}
	if m.Error != nil {
		return nil, m.Error
	}

	m.mu.Lock()
	if payload, ok := req.Body.(domain.TripPayload); ok {
		m.payloads = append(m.payloads, payload)
	}
	m.mu.Unlock()

	if created, ok := out.(*domain.CreatedTrip); ok {
		created.ID = fmt.Sprintf("trip-%d", n)
	}
	return &apiclient.Envelope{Message: "created"}, nil
}

// Payloads returns the submitted trip payloads.
func (m *MockBackend) Payloads() []domain.TripPayload {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.TripPayload(nil), m.payloads...)
}

// ──────────────────────────────────────────────
// MOCK SESSION
// ──────────────────────────────────────────────

// MockSession is a fixed access token.
type MockSession struct {
	Token        string
	ExpiredCount int32
}

func (s *MockSession) AccessToken() string { return s.Token }

func (s *MockSession) Expire(ctx context.Context) { atomic.AddInt32(&s.ExpiredCount, 1) }

// ──────────────────────────────────────────────
// MOCK RESPONSE CACHE
// ──────────────────────────────────────────────

// MockResponseCache is a mock implementation of ResponseCache.
type MockResponseCache struct {
	mu        sync.Mutex
	responses map[string]redis.CachedResponse

	// Counters for verification
	HitCount int32
}

// NewMockResponseCache creates a new mock response cache.
func NewMockResponseCache() *MockResponseCache {
	return &MockResponseCache{responses: make(map[string]redis.CachedResponse)}
}

func (m *MockResponseCache) GetResponse(ctx context.Context, key string) (*redis.CachedResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	resp, ok := m.responses[key]
	if !ok {
		return nil, nil
	}
	atomic.AddInt32(&m.HitCount, 1)
	return &resp, nil
}

func (m *MockResponseCache) SetResponse(ctx context.Context, key string, resp *redis.CachedResponse, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[key] = *resp
	return nil
}

// ──────────────────────────────────────────────
// MOCK NOTIFIER
// ──────────────────────────────────────────────

// SentNotification is one call recorded by MockNotifier.
type SentNotification struct {
	Kind        string
	RecipientID string
	DraftID     string
	Detail      string
}

// MockNotifier records planner notifications.
type MockNotifier struct {
	mu   sync.Mutex
	sent []SentNotification
}

func (m *MockNotifier) NotifyTripSaved(ctx context.Context, recipientID, draftID, tripID, tripName string) error {
	m.record(SentNotification{Kind: "saved", RecipientID: recipientID, DraftID: draftID, Detail: tripID})
	return nil
}

func (m *MockNotifier) NotifyTripSubmitFailed(ctx context.Context, recipientID, draftID, reason string) error {
	m.record(SentNotification{Kind: "failed", RecipientID: recipientID, DraftID: draftID, Detail: reason})
	return nil
}

func (m *MockNotifier) record(n SentNotification) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, n)
}

// Sent returns the recorded notifications.
func (m *MockNotifier) Sent() []SentNotification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentNotification(nil), m.sent...)
}
