// Package registry defines the narrow interface to the canonical
// code→URL store. The shorten service owns the backing table; every other
// service reaches the registry through this read surface.
package registry

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no record exists for a code or URL.
var ErrNotFound = errors.New("url not found")

// Record is the canonical mapping for one short code. Code and OriginalURL
// are immutable once written; a changed target requires a new code.
type Record struct {
	Code          string    `json:"code"`
	OriginalURL   string    `json:"original_url"`
	NormalizedURL string    `json:"normalized_url"`
	CreatedAt     time.Time `json:"created_at"`
}

// Registry is the read surface consumed by the redirect fallback path.
type Registry interface {
	// FindByCode returns the record for a code, or ErrNotFound.
	FindByCode(ctx context.Context, code string) (*Record, error)
}

// Store is the full canonical-store surface, owned by the shorten service.
type Store interface {
	Registry

	// Save persists a new record. The store enforces uniqueness of both
	// code and normalized URL.
	Save(ctx context.Context, rec *Record) (*Record, error)

	// FindByNormalizedURL returns the record for a normalized URL, or
	// ErrNotFound. Used to deduplicate equivalent creation requests.
	FindByNormalizedURL(ctx context.Context, normalized string) (*Record, error)
}

// Save conflict errors. The usecase retries code collisions with a fresh
// code and resolves URL conflicts by re-reading the winner.
var (
	ErrCodeConflict = errors.New("short code already exists")
	ErrURLConflict  = errors.New("normalized url already exists")
)
