package speakerid

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a speaker platform API error.
type Error struct {
	// HTTPStatus is the HTTP status code of the failed response.
	HTTPStatus int `json:"http_status"`

	// Message is the error message returned by the platform, or the raw
	// response body when the platform did not return a structured error.
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("speakerid: %s (http=%d)", e.Message, e.HTTPStatus)
}

// IsAuth returns true for authentication failures (401/403).
// Auth failures are never retried.
func (e *Error) IsAuth() bool {
	return e.HTTPStatus == http.StatusUnauthorized || e.HTTPStatus == http.StatusForbidden
}

// IsRateLimit returns true when the platform rate-limited the request.
func (e *Error) IsRateLimit() bool {
	return e.HTTPStatus == http.StatusTooManyRequests
}

// IsUnavailable returns true for upstream 5xx failures.
func (e *Error) IsUnavailable() bool {
	return e.HTTPStatus >= 500
}

// Retryable returns true if the request can be retried: rate limits and
// upstream failures, never auth failures.
func (e *Error) Retryable() bool {
	return e.IsRateLimit() || e.IsUnavailable()
}

// AsError extracts *Error from an error.
//
// Example:
//
//	if e, ok := speakerid.AsError(err); ok && e.IsRateLimit() {
//	    // back off
//	}
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
