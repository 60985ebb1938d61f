// Package sqlite persists clicks and URL metadata for the analytics service.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"shorty/internal/analytics/usecase"
)

// ClickRepository implements usecase.ClickRepository on sqlite.
type ClickRepository struct {
	db *sql.DB
}

func NewClickRepository(db *sql.DB) *ClickRepository {
	return &ClickRepository{db: db}
}

var _ usecase.ClickRepository = (*ClickRepository)(nil)

// dimensionColumns whitelists the columns TopByDimension may group by.
var dimensionColumns = map[string]string{
	usecase.DimensionUserAgent:     "user_agent",
	usecase.DimensionIPAddress:     "ip_address",
	usecase.DimensionReferer:       "referer",
	usecase.DimensionDeviceType:    "device_type",
	usecase.DimensionTrafficSource: "traffic_source",
	usecase.DimensionCountry:       "country_code",
}

// InsertClick appends one click row. Rows are never updated or deduplicated.
func (r *ClickRepository) InsertClick(ctx context.Context, click usecase.Click) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO clicks (id, code, original_url, clicked_at, user_agent, ip_address, referer, device_type, traffic_source, country_code)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		click.ID,
		click.Code,
		click.OriginalURL,
		click.ClickedAt.UTC().Format(time.RFC3339),
		click.UserAgent,
		click.IPAddress,
		click.Referer,
		click.DeviceType,
		click.TrafficSource,
		click.CountryCode,
	)
	if err != nil {
		return fmt.Errorf("insert click: %w", err)
	}
	return nil
}

func (r *ClickRepository) CountByCode(ctx context.Context, code string) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM clicks WHERE code = ?`, code,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count clicks: %w", err)
	}
	return count, nil
}

// HourlyHistogram buckets clicks into UTC hours, oldest first. clicked_at is
// stored as RFC 3339 text so strftime can truncate it directly.
func (r *ClickRepository) HourlyHistogram(ctx context.Context, code string) ([]usecase.BucketCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT strftime('%Y-%m-%dT%H:00:00Z', clicked_at) AS bucket, COUNT(*) AS count
		FROM clicks
		WHERE code = ?
		GROUP BY bucket
		ORDER BY bucket`,
		code,
	)
	if err != nil {
		return nil, fmt.Errorf("hourly histogram: %w", err)
	}
	defer rows.Close()

	var buckets []usecase.BucketCount
	for rows.Next() {
		var b usecase.BucketCount
		if err := rows.Scan(&b.Bucket, &b.Count); err != nil {
			return nil, fmt.Errorf("scan histogram bucket: %w", err)
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

// TopByDimension returns the most frequent values of one enrichment or
// context column, highest count first.
func (r *ClickRepository) TopByDimension(ctx context.Context, code, dimension string, limit int) ([]usecase.GroupCount, error) {
	column, ok := dimensionColumns[dimension]
	if !ok {
		return nil, fmt.Errorf("unknown breakdown dimension %q", dimension)
	}

	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s AS value, COUNT(*) AS count
		FROM clicks
		WHERE code = ?
		GROUP BY value
		ORDER BY count DESC, value ASC
		LIMIT ?`, column),
		code, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("top by %s: %w", column, err)
	}
	defer rows.Close()

	var groups []usecase.GroupCount
	for rows.Next() {
		var g usecase.GroupCount
		if err := rows.Scan(&g.Value, &g.Count); err != nil {
			return nil, fmt.Errorf("scan %s group: %w", column, err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (r *ClickRepository) GetMetadata(ctx context.Context, code string) (*usecase.URLMetadata, error) {
	var (
		meta      usecase.URLMetadata
		createdAt string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT code, original_url, created_at FROM url_metadata WHERE code = ?`, code,
	).Scan(&meta.Code, &meta.OriginalURL, &createdAt)
	if err == sql.ErrNoRows {
		return nil, usecase.ErrMetadataNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get metadata: %w", err)
	}

	if meta.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parse metadata created_at: %w", err)
	}
	return &meta, nil
}

// InsertMetadata records a code's creation. The first writer wins; a
// concurrent duplicate insert is silently ignored.
func (r *ClickRepository) InsertMetadata(ctx context.Context, meta usecase.URLMetadata) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO url_metadata (code, original_url, created_at)
		VALUES (?, ?, ?)`,
		meta.Code,
		meta.OriginalURL,
		meta.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert metadata: %w", err)
	}
	return nil
}
