// Package problemdetails builds RFC 7807 problem+json payloads shared by
// every HTTP surface.
package problemdetails

import "fmt"

const (
	TypeInvalidRequest    = "invalid-request"
	TypeInvalidURL        = "invalid-url"
	TypeNotFound          = "not-found"
	TypeRateLimitExceeded = "rate-limit-exceeded"
	TypeInternalError     = "internal-error"
)

type ProblemDetail struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

func New(status int, problemType, title, detail string) *ProblemDetail {
	return &ProblemDetail{
		Type:   fmt.Sprintf("https://shorty.example.com/problems/%s", problemType),
		Title:  title,
		Status: status,
		Detail: detail,
	}
}

// Error implements the error interface so problems can travel through
// error returns before being written.
func (p *ProblemDetail) Error() string {
	return fmt.Sprintf("%d %s: %s", p.Status, p.Title, p.Detail)
}
