// Package usecase implements the creation flow: validate, deduplicate on
// the normalized URL, allocate a code, persist, then publish url.created.
package usecase

import (
	"context"
	"errors"
	"fmt"

	"shorty/internal/events"
	"shorty/internal/eventbus"
	"shorty/internal/registry"
	"shorty/internal/shorten/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

const (
	// Code alphabet: alphanumeric, case-sensitive.
	codeAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 8
	maxRetries   = 5
)

// ErrCodeGeneration is returned when code allocation keeps colliding.
var ErrCodeGeneration = errors.New("failed to allocate short code")

// URLService implements the core business logic for URL shortening.
type URLService struct {
	store     registry.Store
	publisher eventbus.Publisher
	logger    *zap.Logger
	baseURL   string
}

// NewURLService creates a new URL service.
func NewURLService(store registry.Store, publisher eventbus.Publisher, logger *zap.Logger, baseURL string) *URLService {
	return &URLService{
		store:     store,
		publisher: publisher,
		logger:    logger,
		baseURL:   baseURL,
	}
}

// ShortURL returns the public short URL for a code.
func (s *URLService) ShortURL(code string) string {
	return s.baseURL + "/" + code
}

// CreateShortURL validates, deduplicates, and creates a short URL.
// Re-submitting an equivalent URL returns the existing record without
// publishing a new event. For a genuinely new URL the url.created publish
// is part of the creation contract: a delivery failure after retries fails
// the whole request.
func (s *URLService) CreateShortURL(ctx context.Context, originalURL string) (*registry.Record, error) {
	if err := domain.Validate(originalURL); err != nil {
		return nil, err
	}

	normalized, err := domain.Normalize(originalURL)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.FindByNormalizedURL(ctx, normalized)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, registry.ErrNotFound) {
		return nil, err
	}

	for attempt := 0; attempt < maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		code, err := gonanoid.Generate(codeAlphabet, codeLength)
		if err != nil {
			return nil, fmt.Errorf("generate short code: %w", err)
		}

		saved, err := s.store.Save(ctx, &registry.Record{
			Code:          code,
			OriginalURL:   originalURL,
			NormalizedURL: normalized,
		})
		if errors.Is(err, registry.ErrCodeConflict) {
			// Collision, try a fresh code.
			continue
		}
		if errors.Is(err, registry.ErrURLConflict) {
			// A concurrent creation of the same URL won; return the winner.
			return s.store.FindByNormalizedURL(ctx, normalized)
		}
		if err != nil {
			return nil, err
		}

		if err := s.publishCreated(ctx, saved); err != nil {
			return nil, err
		}
		return saved, nil
	}

	return nil, ErrCodeGeneration
}

// GetByCode retrieves a record by its short code.
func (s *URLService) GetByCode(ctx context.Context, code string) (*registry.Record, error) {
	return s.store.FindByCode(ctx, code)
}

func (s *URLService) publishCreated(ctx context.Context, rec *registry.Record) error {
	evt := events.URLCreated{
		Code:        rec.Code,
		OriginalURL: rec.OriginalURL,
		CreatedAt:   rec.CreatedAt,
	}

	if err := s.publisher.Publish(ctx, events.TopicURLEvents, evt); err != nil {
		s.logger.Error("failed to publish url.created",
			zap.String("code", rec.Code),
			zap.Error(err),
		)
		return fmt.Errorf("publish creation event: %w", err)
	}

	s.logger.Info("url created",
		zap.String("code", rec.Code),
		zap.String("original_url", rec.OriginalURL),
	)
	return nil
}
