package engine

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/kiranze/FPVNoobBot/internal/model"
)

const (
	// defaultRateLimitWait applies when the upstream message carries no
	// usable retry hint.
	defaultRateLimitWait = 60 * time.Second

	// rateLimitMargin is added on top of the parsed wait.
	rateLimitMargin = 5 * time.Second
)

// Sleeper abstracts waiting so tests can simulate time. Sleep returns early
// with ctx.Err() when the context is cancelled.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// RealSleeper sleeps on the wall clock.
type RealSleeper struct{}

func (RealSleeper) Sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// RetryClient wraps a ModelClient with the rate-limit policy: wait the
// suggested (or default) duration and try again, indefinitely. A throttled
// call is expected to eventually succeed. Any other error is returned
// unmodified on the first occurrence; the caller treats it as a negative
// classification.
type RetryClient struct {
	inner   ModelClient
	sleeper Sleeper
	logger  *slog.Logger
}

// NewRetryClient wraps inner with the rate-limit retry policy.
func NewRetryClient(inner ModelClient, sleeper Sleeper, logger *slog.Logger) *RetryClient {
	if sleeper == nil {
		sleeper = RealSleeper{}
	}
	return &RetryClient{inner: inner, sleeper: sleeper, logger: logger}
}

var _ ModelClient = (*RetryClient)(nil)

// Complete forwards to the wrapped client, absorbing rate-limit errors.
func (c *RetryClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	for {
		out, err := c.inner.Complete(ctx, system, prompt)
		if err == nil {
			return out, nil
		}

		var rl *model.RateLimitError
		if !errors.As(err, &rl) {
			return "", err
		}

		wait := RetryWait(rl.Message)
		c.logger.Warn("classifier rate limited, waiting", "wait", wait.String())
		if serr := c.sleeper.Sleep(ctx, wait); serr != nil {
			return "", serr
		}
	}
}

// RetryWait computes how long to wait before retrying a throttled call. When
// msg contains a hint like "Please try again in 12.5s" the seconds value is
// floored to a whole second and the fixed margin added; otherwise the
// default wait applies.
func RetryWait(msg string) time.Duration {
	secs, ok := parseRetryAfter(msg)
	if !ok {
		return defaultRateLimitWait
	}
	return time.Duration(int(secs))*time.Second + rateLimitMargin
}

// parseRetryAfter extracts the numeric seconds following "try again in".
func parseRetryAfter(msg string) (float64, bool) {
	idx := strings.Index(msg, "try again in")
	if idx < 0 {
		return 0, false
	}
	rest := strings.TrimSpace(msg[idx+len("try again in"):])

	end := 0
	for end < len(rest) && (rest[end] >= '0' && rest[end] <= '9' || rest[end] == '.') {
		end++
	}
	if end == 0 {
		return 0, false
	}

	secs, err := strconv.ParseFloat(rest[:end], 64)
	if err != nil {
		return 0, false
	}
	return secs, true
}
