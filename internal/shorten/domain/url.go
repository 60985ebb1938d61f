// Package domain holds URL validation and normalization rules for the
// shorten service.
package domain

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const maxURLLength = 2048

// ErrInvalidURL marks creation input the caller must fix.
var ErrInvalidURL = errors.New("invalid url")

// Validate checks the URL format and constraints for creation requests.
func Validate(rawURL string) error {
	if len(rawURL) > maxURLLength {
		return fmt.Errorf("%w: exceeds maximum length of %d characters", ErrInvalidURL, maxURLLength)
	}

	parsed, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("%w: scheme must be http or https, got %q", ErrInvalidURL, parsed.Scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("%w: url must have a host", ErrInvalidURL)
	}

	return nil
}

// Normalize produces the canonical form used to deduplicate equivalent
// URLs: scheme and host plus the path without trailing slashes, query and
// fragment preserved, everything lowercased. Two URLs that normalize to the
// same string map to the same short code.
func Normalize(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	normalized := parsed.Scheme + "://" + parsed.Host + strings.TrimRight(parsed.Path, "/")
	if parsed.RawQuery != "" {
		normalized += "?" + parsed.RawQuery
	}
	if parsed.Fragment != "" {
		normalized += "#" + parsed.Fragment
	}

	return strings.ToLower(normalized), nil
}
