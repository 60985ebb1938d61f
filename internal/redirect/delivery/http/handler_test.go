package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"shorty/internal/events"
	"shorty/internal/redirect/usecase"
	"shorty/internal/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]string)}
}

func (c *fakeCache) Get(ctx context.Context, code string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[code], nil
}

func (c *fakeCache) Set(ctx context.Context, code, originalURL string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[code] = originalURL
	return nil
}

type fakeRegistry struct {
	records map[string]*registry.Record
}

func (r *fakeRegistry) FindByCode(ctx context.Context, code string) (*registry.Record, error) {
	if rec, ok := r.records[code]; ok {
		return rec, nil
	}
	return nil, registry.ErrNotFound
}

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

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

func newTestRouter(pub *fakePublisher) (http.Handler, *fakeCache) {
	c := newFakeCache()
	reg := &fakeRegistry{records: map[string]*registry.Record{
		"abc12345": {Code: "abc12345", OriginalURL: "https://example.com/a", CreatedAt: time.Now().UTC()},
	}}
	svc := usecase.NewRedirectService(c, reg, pub, zap.NewNop())
	return NewRouter(NewHandler(svc, zap.NewNop())), c
}

func TestRedirect_KnownCode_Returns302(t *testing.T) {
	pub := &fakePublisher{}
	router, _ := newTestRouter(pub)

	req := httptest.NewRequest(http.MethodGet, "/abc12345", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://example.com/a", rec.Header().Get("Location"))
}

func TestRedirect_PopulatesCacheOnMiss(t *testing.T) {
	pub := &fakePublisher{}
	router, c := newTestRouter(pub)

	req := httptest.NewRequest(http.MethodGet, "/abc12345", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://example.com/a", c.entries["abc12345"])
}

func TestRedirect_UnknownCode_Returns404(t *testing.T) {
	pub := &fakePublisher{}
	router, _ := newTestRouter(pub)

	req := httptest.NewRequest(http.MethodGet, "/zzzzzzzz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Zero(t, pub.count(), "no click event for a failed redirect")
}

func TestRedirect_EmitsClickEvent(t *testing.T) {
	pub := &fakePublisher{}
	router, _ := newTestRouter(pub)

	req := httptest.NewRequest(http.MethodGet, "/abc12345", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Referer", "https://google.com")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	require.Eventually(t, func() bool { return pub.count() == 1 }, 5*time.Second, 10*time.Millisecond)

	pub.mu.Lock()
	clicked, ok := pub.published[0].(events.URLClicked)
	pub.mu.Unlock()
	require.True(t, ok)
	assert.Equal(t, "abc12345", clicked.Code)
	assert.Equal(t, "Mozilla/5.0", clicked.UserAgent)
	assert.Equal(t, "https://google.com", clicked.Referer)
}

func TestRedirect_ClickCarriesBareClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		want       string
	}{
		{"ipv4 with port", "203.0.113.7:54321", "203.0.113.7"},
		{"ipv6 with port", "[2001:db8::1]:443", "2001:db8::1"},
		{"forwarded address without port", "203.0.113.7", "203.0.113.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &fakePublisher{}
			router, _ := newTestRouter(pub)

			req := httptest.NewRequest(http.MethodGet, "/abc12345", nil)
			req.RemoteAddr = tt.remoteAddr
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			require.Equal(t, http.StatusFound, rec.Code)
			require.Eventually(t, func() bool { return pub.count() == 1 }, 5*time.Second, 10*time.Millisecond)

			pub.mu.Lock()
			clicked, ok := pub.published[0].(events.URLClicked)
			pub.mu.Unlock()
			require.True(t, ok)
			assert.Equal(t, tt.want, clicked.IPAddress)
		})
	}
}

func TestRedirect_ClickEmitFailure_DoesNotChangeResponse(t *testing.T) {
	pub := &fakePublisher{err: errors.New("bus unavailable")}
	router, _ := newTestRouter(pub)

	req := httptest.NewRequest(http.MethodGet, "/abc12345", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://example.com/a", rec.Header().Get("Location"))
}

func TestHealth(t *testing.T) {
	pub := &fakePublisher{}
	router, _ := newTestRouter(pub)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
