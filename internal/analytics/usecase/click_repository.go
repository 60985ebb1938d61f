package usecase

import (
	"context"
	"errors"
	"time"
)

// ErrMetadataNotFound is returned when no creation record exists for a code.
var ErrMetadataNotFound = errors.New("url metadata not found")

// Click is one indexed click with its enrichment dimensions.
type Click struct {
	ID            string
	Code          string
	OriginalURL   string
	ClickedAt     time.Time
	UserAgent     string
	IPAddress     string
	Referer       string
	DeviceType    string
	TrafficSource string
	CountryCode   string
}

// URLMetadata joins click aggregates back to URL identity.
type URLMetadata struct {
	Code        string
	OriginalURL string
	CreatedAt   time.Time
}

// BucketCount is one hour bucket of the click histogram.
type BucketCount struct {
	Bucket string
	Count  int64
}

// GroupCount is one row of a top-N breakdown.
type GroupCount struct {
	Value string
	Count int64
}

// Breakdown dimensions understood by TopByDimension.
const (
	DimensionUserAgent     = "user_agent"
	DimensionIPAddress     = "ip_address"
	DimensionReferer       = "referer"
	DimensionDeviceType    = "device_type"
	DimensionTrafficSource = "traffic_source"
	DimensionCountry       = "country_code"
)

// ClickRepository is the analytics store. Clicks are append-only; metadata
// is written once per code.
type ClickRepository interface {
	InsertClick(ctx context.Context, click Click) error
	CountByCode(ctx context.Context, code string) (int64, error)
	HourlyHistogram(ctx context.Context, code string) ([]BucketCount, error)
	TopByDimension(ctx context.Context, code, dimension string, limit int) ([]GroupCount, error)

	GetMetadata(ctx context.Context, code string) (*URLMetadata, error)
	InsertMetadata(ctx context.Context, meta URLMetadata) error
}
