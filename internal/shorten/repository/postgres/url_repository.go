// Package postgres implements the URL registry store on postgres.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shorty/internal/registry"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// Compile-time interface check
var _ registry.Store = (*URLRepository)(nil)

// URLRepository is the postgres-backed canonical store of code→URL records.
type URLRepository struct {
	db *sql.DB
}

// NewURLRepository creates a new postgres URL repository.
func NewURLRepository(db *sql.DB) *URLRepository {
	return &URLRepository{db: db}
}

// Save inserts a new record and returns it with the store-assigned
// created_at. Unique violations are mapped to conflict errors so the caller
// can retry a code collision or re-read a concurrently created duplicate.
func (r *URLRepository) Save(ctx context.Context, rec *registry.Record) (*registry.Record, error) {
	saved := *rec
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO urls (code, original_url, normalized_url)
		 VALUES ($1, $2, $3)
		 RETURNING created_at`,
		rec.Code, rec.OriginalURL, rec.NormalizedURL,
	).Scan(&saved.CreatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			if pqErr.Constraint == "urls_normalized_url_key" {
				return nil, registry.ErrURLConflict
			}
			return nil, registry.ErrCodeConflict
		}
		return nil, fmt.Errorf("save url: %w", err)
	}

	return &saved, nil
}

// FindByCode returns the record for a short code.
func (r *URLRepository) FindByCode(ctx context.Context, code string) (*registry.Record, error) {
	return r.queryOne(ctx,
		`SELECT code, original_url, normalized_url, created_at FROM urls WHERE code = $1`, code)
}

// FindByNormalizedURL returns the record for a normalized URL.
func (r *URLRepository) FindByNormalizedURL(ctx context.Context, normalized string) (*registry.Record, error) {
	return r.queryOne(ctx,
		`SELECT code, original_url, normalized_url, created_at FROM urls WHERE normalized_url = $1`, normalized)
}

func (r *URLRepository) queryOne(ctx context.Context, query string, arg string) (*registry.Record, error) {
	var rec registry.Record
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&rec.Code, &rec.OriginalURL, &rec.NormalizedURL, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, registry.ErrNotFound
		}
		return nil, fmt.Errorf("query url: %w", err)
	}
	return &rec, nil
}
