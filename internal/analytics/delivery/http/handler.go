// Package http exposes the analytics reporting surface.
package http

import (
	"database/sql"
	"net/http"
	"time"

	"shorty/internal/analytics/usecase"
	"shorty/pkg/problemdetails"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

type Handler struct {
	service *usecase.AnalyticsService
	logger  *zap.Logger
	db      *sql.DB
}

func NewHandler(service *usecase.AnalyticsService, logger *zap.Logger, db *sql.DB) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
		db:      db,
	}
}

type URLInfoResponse struct {
	Code        string    `json:"code"`
	OriginalURL string    `json:"originalUrl"`
	CreatedAt   time.Time `json:"createdAt"`
}

type HourBucketResponse struct {
	Hour  string `json:"hour"`
	Count int64  `json:"count"`
}

type BreakdownResponse struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

type ClickAnalyticsResponse struct {
	TotalClicks        int64                `json:"totalClicks"`
	HourlyDistribution []HourBucketResponse `json:"hourlyDistribution"`
	UserAgents         []BreakdownResponse  `json:"userAgents"`
	IPAddresses        []BreakdownResponse  `json:"ipAddresses"`
	TopReferers        []BreakdownResponse  `json:"topReferers"`
	DeviceTypes        []BreakdownResponse  `json:"deviceTypes"`
	TrafficSources     []BreakdownResponse  `json:"trafficSources"`
	Countries          []BreakdownResponse  `json:"countries"`
}

type AnalyticsResponse struct {
	URLInfo        *URLInfoResponse       `json:"urlInfo"`
	ClickAnalytics ClickAnalyticsResponse `json:"clickAnalytics"`
}

// GetAnalytics handles GET /analytics/{code}. A code with no recorded
// events answers 200 with empty aggregates.
func (h *Handler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	report, err := h.service.GetAnalytics(r.Context(), code)
	if err != nil {
		h.logger.Error("failed to compute analytics", zap.String("code", code), zap.Error(err))
		writeProblem(w, problemdetails.New(
			http.StatusInternalServerError,
			problemdetails.TypeInternalError,
			"Internal Server Error",
			"Failed to compute analytics",
		))
		return
	}

	writeJSON(w, http.StatusOK, toAnalyticsResponse(report))
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		h.logger.Error("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func toAnalyticsResponse(report *usecase.Report) AnalyticsResponse {
	resp := AnalyticsResponse{
		ClickAnalytics: ClickAnalyticsResponse{
			TotalClicks: report.TotalClicks,
			HourlyDistribution: lo.Map(report.Hourly, func(b usecase.BucketCount, _ int) HourBucketResponse {
				return HourBucketResponse{Hour: b.Bucket, Count: b.Count}
			}),
			UserAgents:     toBreakdown(report.UserAgents),
			IPAddresses:    toBreakdown(report.IPAddresses),
			TopReferers:    toBreakdown(report.Referers),
			DeviceTypes:    toBreakdown(report.DeviceTypes),
			TrafficSources: toBreakdown(report.TrafficSources),
			Countries:      toBreakdown(report.Countries),
		},
	}

	if report.URLInfo != nil {
		resp.URLInfo = &URLInfoResponse{
			Code:        report.URLInfo.Code,
			OriginalURL: report.URLInfo.OriginalURL,
			CreatedAt:   report.URLInfo.CreatedAt,
		}
	}
	return resp
}

func toBreakdown(groups []usecase.GroupCount) []BreakdownResponse {
	return lo.Map(groups, func(g usecase.GroupCount, _ int) BreakdownResponse {
		return BreakdownResponse{Value: g.Value, Count: g.Count}
	})
}
