package model

import (
	"errors"
	"fmt"
	"time"
)

// HTTPError wraps an HTTP status code so retry logic can inspect it.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// ErrUnknownShape marks a provider response whose structure matched none of
// the known envelope shapes. Soft error: the page is treated as empty.
var ErrUnknownShape = errors.New("unrecognized response shape")

// ErrInvalidVerdict marks a judge response missing required result fields.
var ErrInvalidVerdict = errors.New("judge response missing required fields")
