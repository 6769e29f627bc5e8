package sqlapi

import (
	"errors"
	"fmt"
	"time"
)

// RateLimitError is returned when the service rejects a call for exceeding
// its rate limits. It carries the backoff the server asked for and is never
// interpreted as any other condition (in particular, not as absence of a
// table).
type RateLimitError struct {
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}

// ServiceError is any other error the service reports, carrying its message
// verbatim.
type ServiceError struct {
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

// AsRateLimit unwraps err to a RateLimitError, if it is one.
func AsRateLimit(err error) (*RateLimitError, bool) {
	var rle *RateLimitError
	if errors.As(err, &rle) {
		return rle, true
	}
	return nil, false
}

// AsServiceError unwraps err to a ServiceError, if it is one.
func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
