package usecase

import (
	"context"
	"errors"
	"fmt"

	"shorty/internal/analytics/enrichment"
	"shorty/internal/events"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const topBreakdownLimit = 10

// Report is the full analytics view for one code.
type Report struct {
	URLInfo        *URLMetadata
	TotalClicks    int64
	Hourly         []BucketCount
	UserAgents     []GroupCount
	IPAddresses    []GroupCount
	Referers       []GroupCount
	DeviceTypes    []GroupCount
	TrafficSources []GroupCount
	Countries      []GroupCount
}

// AnalyticsService consumes the event stream into the click store and
// answers aggregation queries over it.
type AnalyticsService struct {
	repo      ClickRepository
	devices   *enrichment.DeviceDetector
	referers  *enrichment.RefererClassifier
	countries enrichment.CountryResolver
	logger    *zap.Logger
}

func NewAnalyticsService(
	repo ClickRepository,
	devices *enrichment.DeviceDetector,
	referers *enrichment.RefererClassifier,
	countries enrichment.CountryResolver,
	logger *zap.Logger,
) *AnalyticsService {
	return &AnalyticsService{
		repo:      repo,
		devices:   devices,
		referers:  referers,
		countries: countries,
		logger:    logger,
	}
}

// HandleEvent dispatches one decoded bus event to the matching indexer.
// Event types this service does not understand are ignored.
func (s *AnalyticsService) HandleEvent(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.URLCreated:
		return s.RecordCreation(ctx, e)
	case events.URLClicked:
		return s.RecordClick(ctx, e)
	default:
		return nil
	}
}

// RecordClick enriches and appends one click. Every delivery appends a new
// row under a fresh id, so a redelivered event counts again; replays settle
// because the aggregates are recomputed at query time from whatever rows
// exist.
func (s *AnalyticsService) RecordClick(ctx context.Context, event events.URLClicked) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate click id: %w", err)
	}

	click := Click{
		ID:            id.String(),
		Code:          event.Code,
		OriginalURL:   event.OriginalURL,
		ClickedAt:     event.Timestamp.UTC(),
		UserAgent:     event.UserAgent,
		IPAddress:     event.IPAddress,
		Referer:       event.Referer,
		DeviceType:    s.devices.DetectDevice(event.UserAgent),
		TrafficSource: s.referers.ClassifySource(event.Referer),
		CountryCode:   s.countries.ResolveCountry(event.IPAddress),
	}

	if err := s.repo.InsertClick(ctx, click); err != nil {
		return fmt.Errorf("failed to index click for %q: %w", event.Code, err)
	}

	s.logger.Debug("click indexed",
		zap.String("code", event.Code),
		zap.String("device_type", click.DeviceType),
		zap.String("traffic_source", click.TrafficSource),
	)
	return nil
}

// RecordCreation indexes the metadata record for a code. Replayed creation
// events find the existing record and leave it untouched.
func (s *AnalyticsService) RecordCreation(ctx context.Context, event events.URLCreated) error {
	_, err := s.repo.GetMetadata(ctx, event.Code)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrMetadataNotFound) {
		return fmt.Errorf("failed to look up metadata for %q: %w", event.Code, err)
	}

	meta := URLMetadata{
		Code:        event.Code,
		OriginalURL: event.OriginalURL,
		CreatedAt:   event.CreatedAt.UTC(),
	}
	if err := s.repo.InsertMetadata(ctx, meta); err != nil {
		return fmt.Errorf("failed to index metadata for %q: %w", event.Code, err)
	}

	s.logger.Info("url metadata indexed", zap.String("code", event.Code))
	return nil
}

// GetAnalytics computes the report for a code on demand. A code with no
// recorded events yields a report with empty aggregates, not an error.
func (s *AnalyticsService) GetAnalytics(ctx context.Context, code string) (*Report, error) {
	report := &Report{}

	meta, err := s.repo.GetMetadata(ctx, code)
	switch {
	case err == nil:
		report.URLInfo = meta
	case errors.Is(err, ErrMetadataNotFound):
	default:
		return nil, err
	}

	if report.TotalClicks, err = s.repo.CountByCode(ctx, code); err != nil {
		return nil, err
	}
	if report.Hourly, err = s.repo.HourlyHistogram(ctx, code); err != nil {
		return nil, err
	}

	breakdowns := []struct {
		dimension string
		dest      *[]GroupCount
	}{
		{DimensionUserAgent, &report.UserAgents},
		{DimensionIPAddress, &report.IPAddresses},
		{DimensionReferer, &report.Referers},
		{DimensionDeviceType, &report.DeviceTypes},
		{DimensionTrafficSource, &report.TrafficSources},
		{DimensionCountry, &report.Countries},
	}
	for _, b := range breakdowns {
		if *b.dest, err = s.repo.TopByDimension(ctx, code, b.dimension, topBreakdownLimit); err != nil {
			return nil, err
		}
	}

	return report, nil
}
