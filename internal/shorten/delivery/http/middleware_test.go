package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveLimited(rl *RateLimiter, remoteAddr string) *httptest.ResponseRecorder {
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/shorten", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_AllowsWithinLimit(t *testing.T) {
	rl := NewRateLimiter(5)

	for i := 0; i < 5; i++ {
		rec := serveLimited(rl, "203.0.113.7")
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := serveLimited(rl, "203.0.113.7")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestRateLimiter_TracksClientsSeparately(t *testing.T) {
	rl := NewRateLimiter(1)

	require.Equal(t, http.StatusOK, serveLimited(rl, "203.0.113.7").Code)
	require.Equal(t, http.StatusTooManyRequests, serveLimited(rl, "203.0.113.7").Code)
	assert.Equal(t, http.StatusOK, serveLimited(rl, "203.0.113.8").Code)
}

func TestRateLimiter_NonPositiveRateClampedToOne(t *testing.T) {
	for _, requestsPerMinute := range []int{0, -3} {
		rl := NewRateLimiter(requestsPerMinute)

		rec := serveLimited(rl, "203.0.113.7")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))

		rec = serveLimited(rl, "203.0.113.7")
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	}
}
