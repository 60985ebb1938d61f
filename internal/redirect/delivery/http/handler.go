// Package http exposes the redirect hot path.
package http

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"shorty/internal/redirect/usecase"
	"shorty/pkg/problemdetails"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler handles redirect requests.
type Handler struct {
	service *usecase.RedirectService
	logger  *zap.Logger
}

// NewHandler creates a new Handler.
func NewHandler(service *usecase.RedirectService, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Redirect handles GET /{code}: resolve via cache-then-registry, send the
// redirect, and emit the click as a detached task. A click-emit failure
// never changes the response.
func (h *Handler) Redirect(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	target, err := h.service.Resolve(r.Context(), code)
	if err != nil {
		if errors.Is(err, usecase.ErrNotFound) {
			writeProblem(w, problemdetails.New(
				http.StatusNotFound,
				problemdetails.TypeNotFound,
				"Not Found",
				"short code '"+code+"' not found",
			))
			return
		}

		h.logger.Error("failed to resolve short code", zap.String("code", code), zap.Error(err))
		writeProblem(w, problemdetails.New(
			http.StatusInternalServerError,
			problemdetails.TypeInternalError,
			"Internal Server Error",
			"Failed to resolve short code",
		))
		return
	}

	h.service.EmitClick(code, target, usecase.RequestContext{
		UserAgent: r.UserAgent(),
		IPAddress: clientIP(r),
		Referer:   r.Referer(),
	})

	http.Redirect(w, r, target, http.StatusFound)
}

// clientIP strips the port from RemoteAddr so the click carries a bare IP.
// RealIP middleware has already substituted forwarded addresses, which
// arrive without a port.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}

func writeProblem(w http.ResponseWriter, problem *problemdetails.ProblemDetail) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(problem.Status)
	json.NewEncoder(w).Encode(problem)
}
