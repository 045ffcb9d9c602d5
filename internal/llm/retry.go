package llm

import (
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"
)

// RetryConfig configures retry behavior.
type RetryConfig struct {
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// DefaultRetryConfig returns the retry policy for network providers.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 4,
		BaseBackoff: 1 * time.Second,
		MaxBackoff:  20 * time.Second,
	}
}

// RetryProvider retries a provider's stream on transient failures. A
// stream is only retried while nothing has been forwarded to the caller,
// so rendered output is never repeated.
type RetryProvider struct {
	inner  Provider
	config RetryConfig
}

// WrapWithRetry wraps a provider with retry logic.
func WrapWithRetry(p Provider, config RetryConfig) Provider {
	return &RetryProvider{inner: p, config: config}
}

func (r *RetryProvider) Name() string  { return r.inner.Name() }
func (r *RetryProvider) Model() string { return r.inner.Model() }

// Unwrap returns the wrapped provider.
func (r *RetryProvider) Unwrap() Provider {
	return r.inner
}

func (r *RetryProvider) Stream(ctx context.Context, req Request) (Stream, error) {
	return newEventStream(ctx, func(ctx context.Context, events chan<- Event) error {
		for attempt := 1; ; attempt++ {
			forwarded, err := r.attempt(ctx, req, events)
			if err == nil {
				return nil
			}
			if forwarded || !isRetryable(err) || attempt >= r.config.MaxAttempts {
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}

			wait := r.backoff(attempt, err)
			if err := send(ctx, events, Event{
				Type:             EventRetry,
				Err:              err,
				RetryAttempt:     attempt,
				RetryMaxAttempts: r.config.MaxAttempts,
				RetryWaitSecs:    wait.Seconds(),
			}); err != nil {
				return err
			}

			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}), nil
}

// attempt runs one inner stream, copying its events to events. It reports
// whether any event reached the caller.
func (r *RetryProvider) attempt(ctx context.Context, req Request, events chan<- Event) (bool, error) {
	stream, err := r.inner.Stream(ctx, req)
	if err != nil {
		return false, err
	}
	defer stream.Close()

	forwarded := false
	for {
		event, err := stream.Recv()
		if err == io.EOF {
			return forwarded, nil
		}
		if err != nil {
			return forwarded, err
		}
		// Providers report mid-stream failures such as a 429 as events.
		if event.Type == EventError && event.Err != nil {
			return forwarded, event.Err
		}
		if err := send(ctx, events, event); err != nil {
			return forwarded, err
		}
		forwarded = true
	}
}

// retryableStatus lists HTTP statuses worth another attempt. 529 is
// Anthropic's "overloaded".
var retryableStatus = map[int]bool{
	http.StatusRequestTimeout:     true,
	http.StatusTooManyRequests:    true,
	http.StatusBadGateway:         true,
	http.StatusServiceUnavailable: true,
	http.StatusGatewayTimeout:     true,
	529:                           true,
}

// retryableMarkers match errors that carry no status, such as messages
// relayed through a stream's error event.
var retryableMarkers = []string{
	"429", "529", "rate limit", "too many requests", "bad gateway",
	"service unavailable", "overloaded", "connection refused",
	"connection reset", "timeout", "temporary failure", "no such host",
}

func isRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if status, ok := statusCode(err); ok {
		return retryableStatus[status] || status >= 500
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range retryableMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// statusCode extracts the HTTP status from an SDK API error.
func statusCode(err error) (int, bool) {
	var anthropicErr *anthropic.Error
	if errors.As(err, &anthropicErr) {
		return anthropicErr.StatusCode, true
	}
	var openaiErr *openai.Error
	if errors.As(err, &openaiErr) {
		return openaiErr.StatusCode, true
	}
	return 0, false
}

// retryAfterRegex matches Retry-After values quoted in error messages.
var retryAfterRegex = regexp.MustCompile(`(?i)retry[- ]?after[:\s]+(\d+)`)

// retryAfter returns the server's requested delay, if it sent one.
func retryAfter(err error) (time.Duration, bool) {
	var resp *http.Response
	var anthropicErr *anthropic.Error
	var openaiErr *openai.Error
	switch {
	case errors.As(err, &anthropicErr):
		resp = anthropicErr.Response
	case errors.As(err, &openaiErr):
		resp = openaiErr.Response
	}
	if resp != nil {
		if secs, convErr := strconv.Atoi(resp.Header.Get("Retry-After")); convErr == nil && secs > 0 {
			return time.Duration(secs) * time.Second, true
		}
	}
	if m := retryAfterRegex.FindStringSubmatch(err.Error()); m != nil {
		if secs, convErr := strconv.Atoi(m[1]); convErr == nil && secs > 0 {
			return time.Duration(secs) * time.Second, true
		}
	}
	return 0, false
}

// backoff is the wait before the attempt after attempt: the server's
// Retry-After when given, otherwise exponential with 25% jitter. Both are
// capped at MaxBackoff.
func (r *RetryProvider) backoff(attempt int, err error) time.Duration {
	if d, ok := retryAfter(err); ok {
		return min(d, r.config.MaxBackoff)
	}
	d := r.config.BaseBackoff << (attempt - 1)
	if d <= 0 || d > r.config.MaxBackoff {
		d = r.config.MaxBackoff
	}
	jitter := time.Duration((rand.Float64() - 0.5) * 0.5 * float64(d))
	return min(d+jitter, r.config.MaxBackoff)
}
