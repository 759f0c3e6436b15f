package model

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a posting id does not exist.
	ErrNotFound = errors.New("posting not found")
	// ErrExtraction marks a result card that could not be turned into a posting.
	ErrExtraction = errors.New("extraction failed")
	// ErrPersistence marks a store write that was rolled back.
	ErrPersistence = errors.New("persistence failed")
	// ErrAIDisabled is returned by the analysis layer when no model is configured.
	ErrAIDisabled = errors.New("ai analysis is disabled")
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
