// Package usecase implements the redirect hot path: cache-aside resolution
// against the registry, the event-driven cache warmer, and the
// fire-and-forget click emitter.
package usecase

import (
	"context"
	"errors"
	"time"

	"shorty/internal/events"
	"shorty/internal/eventbus"
	"shorty/internal/redirect/cache"
	"shorty/internal/registry"

	"go.uber.org/zap"
)

// ErrNotFound is returned when neither the cache nor the registry resolves
// a code.
var ErrNotFound = errors.New("short code not found")

const (
	registryTimeout  = 2 * time.Second
	clickEmitTimeout = 5 * time.Second
)

// RequestContext carries the click telemetry extracted from an inbound
// request. Zero values are replaced with sentinels before publishing.
type RequestContext struct {
	UserAgent string
	IPAddress string
	Referer   string
}

func (rc RequestContext) withDefaults() RequestContext {
	if rc.UserAgent == "" {
		rc.UserAgent = events.UnknownUserAgent
	}
	if rc.IPAddress == "" {
		rc.IPAddress = events.UnknownIPAddress
	}
	if rc.Referer == "" {
		rc.Referer = events.UnknownReferer
	}
	return rc
}

// RedirectService resolves codes and emits click telemetry.
type RedirectService struct {
	cache    cache.Cache
	registry registry.Registry
	clicks   eventbus.Publisher
	logger   *zap.Logger
	clock    func() time.Time
}

// NewRedirectService creates a new redirect service.
func NewRedirectService(c cache.Cache, reg registry.Registry, clicks eventbus.Publisher, logger *zap.Logger) *RedirectService {
	return &RedirectService{
		cache:    c,
		registry: reg,
		clicks:   clicks,
		logger:   logger,
		clock:    time.Now,
	}
}

// Resolve returns the original URL for a code. A cache hit answers
// immediately; a miss costs one bounded registry round trip, after which
// the cache is repopulated for the remainder of the TTL.
func (s *RedirectService) Resolve(ctx context.Context, code string) (string, error) {
	if target, err := s.cache.Get(ctx, code); err == nil && target != "" {
		return target, nil
	}

	rctx, cancel := context.WithTimeout(ctx, registryTimeout)
	defer cancel()

	rec, err := s.registry.FindByCode(rctx, code)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}

	_ = s.cache.Set(ctx, code, rec.OriginalURL)
	return rec.OriginalURL, nil
}

// EmitClick publishes a url.clicked event as a detached task whose result
// is observed only for logging. The caller's response path never waits on
// it: redirect availability wins over click-tracking completeness. The
// emission runs on its own context so a client disconnect does not cancel
// an already-initiated publish.
func (s *RedirectService) EmitClick(code, originalURL string, rc RequestContext) {
	rc = rc.withDefaults()
	evt := events.URLClicked{
		Code:        code,
		OriginalURL: originalURL,
		Timestamp:   s.clock().UTC(),
		UserAgent:   rc.UserAgent,
		IPAddress:   rc.IPAddress,
		Referer:     rc.Referer,
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), clickEmitTimeout)
		defer cancel()

		if err := s.clicks.Publish(ctx, events.TopicURLClicks, evt); err != nil {
			s.logger.Warn("failed to publish url.clicked, dropping",
				zap.String("code", code),
				zap.Error(err),
			)
		}
	}()
}

// WarmCache consumes url.created events and unconditionally writes the
// mapping, so the first redirect after creation is already a cache hit.
// Duplicate deliveries are harmless: the write is last-write-wins.
func (s *RedirectService) WarmCache(ctx context.Context, e events.Event) error {
	created, ok := e.(events.URLCreated)
	if !ok {
		return nil
	}

	if err := s.cache.Set(ctx, created.Code, created.OriginalURL); err != nil {
		return err
	}

	s.logger.Debug("cache warmed",
		zap.String("code", created.Code),
	)
	return nil
}
