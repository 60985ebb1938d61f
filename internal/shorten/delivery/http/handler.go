// Package http exposes the creation API and the registry lookup endpoint.
package http

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"shorty/internal/registry"
	"shorty/internal/shorten/domain"
	"shorty/internal/shorten/usecase"
	"shorty/pkg/problemdetails"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for URL operations.
type Handler struct {
	service *usecase.URLService
	logger  *zap.Logger
	db      *sql.DB
}

// NewHandler creates a new Handler.
func NewHandler(service *usecase.URLService, logger *zap.Logger, db *sql.DB) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
		db:      db,
	}
}

// ShortenRequest is the request body for creating a short URL.
type ShortenRequest struct {
	URL string `json:"url"`
}

// URLResponse is the response for creation and lookup.
type URLResponse struct {
	Code          string    `json:"code"`
	ShortURL      string    `json:"short_url"`
	OriginalURL   string    `json:"original_url"`
	NormalizedURL string    `json:"normalized_url"`
	CreatedAt     time.Time `json:"created_at"`
}

// Shorten handles POST /shorten.
func (h *Handler) Shorten(w http.ResponseWriter, r *http.Request) {
	var req ShortenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, problemdetails.New(
			http.StatusBadRequest,
			problemdetails.TypeInvalidRequest,
			"Invalid Request",
			"Request body must be valid JSON with 'url' field",
		))
		return
	}

	if req.URL == "" {
		writeProblem(w, problemdetails.New(
			http.StatusBadRequest,
			problemdetails.TypeInvalidURL,
			"Invalid URL",
			"url is required",
		))
		return
	}

	rec, err := h.service.CreateShortURL(r.Context(), req.URL)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidURL) {
			writeProblem(w, problemdetails.New(
				http.StatusBadRequest,
				problemdetails.TypeInvalidURL,
				"Invalid URL",
				err.Error(),
			))
			return
		}

		h.logger.Error("failed to create short url", zap.Error(err))
		writeProblem(w, problemdetails.New(
			http.StatusInternalServerError,
			problemdetails.TypeInternalError,
			"Internal Server Error",
			"Failed to create short URL",
		))
		return
	}

	writeJSON(w, http.StatusOK, h.toResponse(rec))
}

// Lookup handles GET /api/urls/{code}. This is the registry surface the
// redirect service's fallback client consumes.
func (h *Handler) Lookup(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	rec, err := h.service.GetByCode(r.Context(), code)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			writeProblem(w, problemdetails.New(
				http.StatusNotFound,
				problemdetails.TypeNotFound,
				"Not Found",
				"short code '"+code+"' not found",
			))
			return
		}

		h.logger.Error("failed to look up short url", zap.String("code", code), zap.Error(err))
		writeProblem(w, problemdetails.New(
			http.StatusInternalServerError,
			problemdetails.TypeInternalError,
			"Internal Server Error",
			"Failed to look up short URL",
		))
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.PingContext(r.Context()); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"status":   "unhealthy",
				"database": "disconnected",
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "healthy",
		"database": "connected",
	})
}

func (h *Handler) toResponse(rec *registry.Record) URLResponse {
	return URLResponse{
		Code:          rec.Code,
		ShortURL:      h.service.ShortURL(rec.Code),
		OriginalURL:   rec.OriginalURL,
		NormalizedURL: rec.NormalizedURL,
		CreatedAt:     rec.CreatedAt,
	}
}
