package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrRequestNotFound = errors.New("feature request not found")
	ErrInvalidStatus   = errors.New("invalid request status")
)

// ValidationError rejects a submission before anything is stored.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// RateLimitError rejects a submission from an IP that already submitted
// within the rate window. RetryAfter is how long the caller should wait.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited, retry in %s", e.RetryAfter)
}
