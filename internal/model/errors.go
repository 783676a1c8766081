package model

import (
	"errors"
	"fmt"
)

// RateLimitError reports that the classifier service throttled a request.
// The retry controller parses a suggested wait out of Message when present.
type RateLimitError struct {
	Message string
}

func (e *RateLimitError) Error() string {
	return "rate limited: " + e.Message
}

// TransientError reports a server-side failure from the forum API that is
// expected to clear on retry.
type TransientError struct {
	StatusCode int
	Message    string
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient: HTTP %d: %s", e.StatusCode, e.Message)
}

// IsRateLimit reports whether err is (or wraps) a RateLimitError.
func IsRateLimit(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}

// IsTransient reports whether err is (or wraps) a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
