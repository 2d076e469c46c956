package embedding

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/planscout/internal/core/domain"
)

const (
	baseRetryDelay = 200 * time.Millisecond
	maxRetryDelay  = 5 * time.Second
	maxErrorBody   = 512
)

// RequestFunc builds a fresh request for each attempt.
type RequestFunc func(ctx context.Context) (*http.Request, error)

// Transport sends embedding requests with throttling and bounded retries.
// 429 and 5xx responses and network errors are retried; other
// non-2xx statuses fail immediately.
type Transport struct {
	client     *http.Client
	limiter    *RateLimiter
	maxRetries int
	backoff    func(attempt int) time.Duration
}

// TransportOption configures a Transport.
type TransportOption func(*Transport)

// WithBackoff replaces the retry delay schedule.
func WithBackoff(f func(attempt int) time.Duration) TransportOption {
	return func(t *Transport) {
		if f != nil {
			t.backoff = f
		}
	}
}

// NewTransport creates a transport. A nil limiter disables throttling.
func NewTransport(client *http.Client, limiter *RateLimiter, maxRetries int, opts ...TransportOption) *Transport {
	if client == nil {
		client = http.DefaultClient
	}
	if limiter == nil {
		limiter = NewRateLimiter(RateLimitConfig{})
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	t := &Transport{
		client:     client,
		limiter:    limiter,
		maxRetries: maxRetries,
		backoff:    retryDelay,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Do sends the request built by newReq and returns the 2xx response body.
func (t *Transport) Do(ctx context.Context, newReq RequestFunc) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= t.maxRetries; attempt++ {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := newReq(ctx)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}

		resp, err := t.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("%w: send request: %w", domain.ErrUpstream, err)
			if err := t.pause(ctx, attempt); err != nil {
				return nil, err
			}
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			delay := retryAfter(resp.Header.Get("Retry-After"))
			if delay <= 0 {
				delay = t.backoff(attempt)
			}
			t.limiter.RecordRateLimitError(delay)
			lastErr = fmt.Errorf("%w: %w: status %d: %s", domain.ErrUpstream, domain.ErrRateLimited, resp.StatusCode, snippet(body))
			continue

		case resp.StatusCode >= http.StatusInternalServerError:
			lastErr = fmt.Errorf("%w: status %d: %s", domain.ErrUpstream, resp.StatusCode, snippet(body))
			if err := t.pause(ctx, attempt); err != nil {
				return nil, err
			}
			continue

		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			return nil, fmt.Errorf("%w: status %d: %s", domain.ErrUpstream, resp.StatusCode, snippet(body))
		}

		if readErr != nil {
			return nil, fmt.Errorf("%w: read response: %w", domain.ErrUpstream, readErr)
		}
		return body, nil
	}

	if lastErr == nil {
		lastErr = errors.New("no attempts made")
	}
	return nil, fmt.Errorf("giving up after %d attempts: %w", t.maxRetries+1, lastErr)
}

func (t *Transport) pause(ctx context.Context, attempt int) error {
	if attempt >= t.maxRetries {
		return nil
	}
	timer := time.NewTimer(t.backoff(attempt))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// retryDelay is exponential from 200ms, capped at 5s.
func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 8 {
		return maxRetryDelay
	}
	d := baseRetryDelay << attempt
	if d > maxRetryDelay {
		d = maxRetryDelay
	}
	return d
}

// retryAfter parses a Retry-After header given in seconds.
func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody] + "..."
	}
	return s
}
