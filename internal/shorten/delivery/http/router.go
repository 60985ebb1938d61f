package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// NewRouter builds the shorten service's HTTP routes.
func NewRouter(handler *Handler, logger *zap.Logger, rateLimiter *RateLimiter) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware(logger))

	r.Get("/healthz", handler.Health)
	r.Get("/api/urls/{code}", handler.Lookup)

	r.Group(func(r chi.Router) {
		r.Use(rateLimiter.Middleware)
		r.Post("/shorten", handler.Shorten)
	})

	return r
}
