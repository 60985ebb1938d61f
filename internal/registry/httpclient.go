package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const defaultClientTimeout = 2 * time.Second

// Compile-time interface check
var _ Registry = (*HTTPClient)(nil)

// HTTPClient resolves codes against the shorten service's lookup endpoint.
// The services share no database; this client is how the redirect fallback
// reaches the canonical store. Calls are bounded by the client timeout so a
// registry outage degrades to a miss instead of hanging the hot path.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPClient creates a registry client for the shorten service at
// baseURL, e.g. "http://localhost:8080".
func NewHTTPClient(baseURL string, logger *zap.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: defaultClientTimeout},
		logger:  logger,
	}
}

// FindByCode looks up a record by short code.
func (c *HTTPClient) FindByCode(ctx context.Context, code string) (*Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/urls/"+code, nil)
	if err != nil {
		return nil, fmt.Errorf("build registry request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("registry lookup for %s: %w", code, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var rec Record
		if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
			return nil, fmt.Errorf("decode registry response: %w", err)
		}
		return &rec, nil
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("registry lookup for %s: unexpected status %d", code, resp.StatusCode)
	}
}
