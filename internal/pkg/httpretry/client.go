// Package httpretry provides an HTTP client with automatic retry logic and a
// deterministic exponential backoff schedule for rate-limited external APIs.
package httpretry

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/ignite/mailchimp-archive/internal/pkg/logger"
)

// HTTPDoer is the interface for executing HTTP requests.
// Both *http.Client and *RetryClient satisfy this interface.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// RetryClient wraps an HTTPDoer with retry logic using exponential backoff.
type RetryClient struct {
	client     HTTPDoer
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	sleep      SleepFunc
}

// Option customizes a RetryClient.
type Option func(*RetryClient)

// WithSleep replaces the wait between attempts. Tests pass a recorder here.
func WithSleep(fn SleepFunc) Option {
	return func(rc *RetryClient) {
		if fn != nil {
			rc.sleep = fn
		}
	}
}

// WithBackoff sets the first retry delay and the ceiling.
func WithBackoff(base, max time.Duration) Option {
	return func(rc *RetryClient) {
		if base > 0 {
			rc.baseDelay = base
		}
		if max > 0 {
			rc.maxDelay = max
		}
	}
}

// NewRetryClient creates a new RetryClient that wraps the given HTTPDoer.
// If client is nil, a default http.Client with 30s timeout is used.
// maxRetries is the number of retry attempts after the initial request (default 3).
func NewRetryClient(client HTTPDoer, maxRetries int, opts ...Option) *RetryClient {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	rc := &RetryClient{
		client:     client,
		maxRetries: maxRetries,
		baseDelay:  1 * time.Second,
		maxDelay:   30 * time.Second,
		sleep:      SleepContext,
	}
	for _, opt := range opts {
		opt(rc)
	}
	return rc
}

// MaxAttempts returns the total number of requests Do may issue.
func (rc *RetryClient) MaxAttempts() int {
	return rc.maxRetries + 1
}

// Sleep waits using the client's configured sleep function.
func (rc *RetryClient) Sleep(ctx context.Context, d time.Duration) error {
	return rc.sleep(ctx, d)
}

// Do executes the HTTP request with retry logic.
// It retries on 429 and any 5xx status, and on transport errors. It does NOT
// retry on other client errors (400, 401, 403, 404) or context cancellation.
// On the final attempt, it returns the response as-is so the caller
// can inspect the status code and body.
func (rc *RetryClient) Do(req *http.Request) (*http.Response, error) {
	var lastErr error
	var retryAfter time.Duration

	for attempt := 0; attempt <= rc.maxRetries; attempt++ {
		if req.Context().Err() != nil {
			if lastErr != nil {
				return nil, lastErr
			}
			return nil, req.Context().Err()
		}

		if attempt > 0 {
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, fmt.Errorf("httpretry: failed to reset request body: %w", err)
				}
				req.Body = body
			}

			delay := rc.Backoff(attempt)
			if retryAfter > delay {
				delay = min(retryAfter, rc.maxDelay)
			}
			logger.Warn("httpretry: retrying request",
				"attempt", attempt,
				"max_retries", rc.maxRetries,
				"method", req.Method,
				"path", req.URL.Path,
				"wait", delay,
				"cause", lastErr,
			)

			if err := rc.sleep(req.Context(), delay); err != nil {
				if lastErr != nil {
					return nil, lastErr
				}
				return nil, err
			}
		}

		resp, err := rc.client.Do(req)
		if err != nil {
			lastErr = err
			retryAfter = 0
			if req.Context().Err() != nil {
				return nil, err
			}
			continue
		}

		if !IsRetryableStatus(resp.StatusCode) {
			return resp, nil
		}

		if attempt == rc.maxRetries {
			return resp, nil
		}

		retryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		lastErr = fmt.Errorf("httpretry: server returned retryable status %d", resp.StatusCode)
	}

	return nil, lastErr
}

// Backoff returns the wait before the given retry attempt (1-based):
// baseDelay * 2^(attempt-1), capped at maxDelay. The schedule has no jitter,
// so the same attempt always waits the same amount.
func (rc *RetryClient) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	delay := rc.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= rc.maxDelay {
			return rc.maxDelay
		}
	}
	if delay > rc.maxDelay {
		return rc.maxDelay
	}
	return delay
}

// IsRetryableStatus returns true for 429 (Too Many Requests) and any 5xx.
func IsRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || statusCode >= http.StatusInternalServerError
}

// SleepContext waits for d, returning early with ctx.Err() if ctx is done.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// parseRetryAfter reads a delay-seconds Retry-After value. HTTP-date values
// are ignored and fall back to the backoff schedule.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
