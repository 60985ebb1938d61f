package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"shorty/internal/events"
	"shorty/internal/registry"
	"shorty/internal/shorten/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeStore is an in-memory registry.Store.
type fakeStore struct {
	mu           sync.Mutex
	byCode       map[string]*registry.Record
	byNormalized map[string]*registry.Record
	saveErr      error
	conflictOnce bool
	// missProbeOnce makes the first FindByNormalizedURL return ErrNotFound,
	// simulating a concurrent writer landing between the dedup probe and
	// the save.
	missProbeOnce bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		byCode:       make(map[string]*registry.Record),
		byNormalized: make(map[string]*registry.Record),
	}
}

func (s *fakeStore) Save(ctx context.Context, rec *registry.Record) (*registry.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		err := s.saveErr
		if s.conflictOnce {
			s.saveErr = nil
		}
		return nil, err
	}
	if _, ok := s.byCode[rec.Code]; ok {
		return nil, registry.ErrCodeConflict
	}
	if _, ok := s.byNormalized[rec.NormalizedURL]; ok {
		return nil, registry.ErrURLConflict
	}
	saved := *rec
	saved.CreatedAt = time.Now().UTC()
	s.byCode[saved.Code] = &saved
	s.byNormalized[saved.NormalizedURL] = &saved
	return &saved, nil
}

func (s *fakeStore) FindByCode(ctx context.Context, code string) (*registry.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.byCode[code]; ok {
		return rec, nil
	}
	return nil, registry.ErrNotFound
}

func (s *fakeStore) FindByNormalizedURL(ctx context.Context, normalized string) (*registry.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.missProbeOnce {
		s.missProbeOnce = false
		return nil, registry.ErrNotFound
	}
	if rec, ok := s.byNormalized[normalized]; ok {
		return rec, nil
	}
	return nil, registry.ErrNotFound
}

// fakePublisher records published events and can be made to fail.
type fakePublisher struct {
	mu        sync.Mutex
	published []events.Event
	err       error
}

func (p *fakePublisher) Publish(ctx context.Context, topic string, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, e)
	return nil
}

func (p *fakePublisher) events() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event(nil), p.published...)
}

func newService(store *fakeStore, pub *fakePublisher) *URLService {
	return NewURLService(store, pub, zap.NewNop(), "http://localhost:8080")
}

func TestCreateShortURL_AssignsEightCharCode(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	svc := newService(store, pub)

	rec, err := svc.CreateShortURL(context.Background(), "https://example.com/a")

	require.NoError(t, err)
	assert.Len(t, rec.Code, 8)
	assert.Equal(t, "https://example.com/a", rec.OriginalURL)
	assert.False(t, rec.CreatedAt.IsZero())
}

func TestCreateShortURL_PublishesCreationEvent(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	svc := newService(store, pub)

	rec, err := svc.CreateShortURL(context.Background(), "https://example.com/a")
	require.NoError(t, err)

	published := pub.events()
	require.Len(t, published, 1)
	created, ok := published[0].(events.URLCreated)
	require.True(t, ok)
	assert.Equal(t, rec.Code, created.Code)
	assert.Equal(t, rec.OriginalURL, created.OriginalURL)
}

func TestCreateShortURL_DeduplicatesEquivalentURLs(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	svc := newService(store, pub)

	first, err := svc.CreateShortURL(context.Background(), "https://example.com/a")
	require.NoError(t, err)

	// Same URL modulo normalization: host case and trailing slash.
	second, err := svc.CreateShortURL(context.Background(), "https://Example.com/a/")
	require.NoError(t, err)

	assert.Equal(t, first.Code, second.Code)
	// No second creation event for a dedup hit.
	assert.Len(t, pub.events(), 1)
}

func TestCreateShortURL_InvalidURL(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	svc := newService(store, pub)

	_, err := svc.CreateShortURL(context.Background(), "not-a-url")

	require.ErrorIs(t, err, domain.ErrInvalidURL)
	assert.Empty(t, pub.events())
}

func TestCreateShortURL_PublishFailureFailsCreation(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{err: errors.New("bus unavailable")}
	svc := newService(store, pub)

	_, err := svc.CreateShortURL(context.Background(), "https://example.com/a")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish creation event")
}

func TestCreateShortURL_RetriesCodeCollision(t *testing.T) {
	store := newFakeStore()
	store.saveErr = registry.ErrCodeConflict
	store.conflictOnce = true
	pub := &fakePublisher{}
	svc := newService(store, pub)

	rec, err := svc.CreateShortURL(context.Background(), "https://example.com/a")

	require.NoError(t, err)
	assert.Len(t, rec.Code, 8)
}

func TestCreateShortURL_ConcurrentURLConflict_ReturnsWinner(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	svc := newService(store, pub)

	winner, err := store.Save(context.Background(), &registry.Record{
		Code:          "winner11",
		OriginalURL:   "https://example.com/a",
		NormalizedURL: "https://example.com/a",
	})
	require.NoError(t, err)

	// The dedup probe misses, the save hits the unique constraint, and the
	// service re-reads the concurrently created winner.
	store.missProbeOnce = true

	rec, err := svc.CreateShortURL(context.Background(), "https://example.com/a")
	require.NoError(t, err)
	assert.Equal(t, winner.Code, rec.Code)
	assert.Empty(t, pub.events())
}

func TestGetByCode(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	svc := newService(store, pub)

	created, err := svc.CreateShortURL(context.Background(), "https://example.com/a")
	require.NoError(t, err)

	rec, err := svc.GetByCode(context.Background(), created.Code)
	require.NoError(t, err)
	assert.Equal(t, created.OriginalURL, rec.OriginalURL)

	_, err = svc.GetByCode(context.Background(), "zzzzzzzz")
	require.ErrorIs(t, err, registry.ErrNotFound)
}
