// Package httpretry provides an HTTP client with automatic retries,
// exponential backoff and jitter for calls to remote APIs.
package httpretry

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/medallia/speech-api-reference-implementation/internal/util"
)

// HTTPDoer is the interface for executing HTTP requests.
// Both *http.Client and *RetryClient satisfy this interface.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config controls the retry policy
type Config struct {
	// MaxAttempts is the total number of attempts, including the first one
	MaxAttempts int

	// InitialDelay is the backoff before the first retry
	InitialDelay time.Duration

	// MaxDelay caps the backoff, including server supplied Retry-After values
	MaxDelay time.Duration
}

// DefaultConfig returns the default retry policy: three attempts, 1s initial
// backoff capped at 30s
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
	}
}

// RetryClient wraps an HTTPDoer with retry logic using exponential backoff and jitter
type RetryClient struct {
	client HTTPDoer
	cfg    Config
	logger *slog.Logger
}

// NewRetryClient creates a new RetryClient that wraps the given HTTPDoer.
// If client is nil, a default http.Client with 30s timeout is used.
// Zero config values fall back to DefaultConfig.
func NewRetryClient(client HTTPDoer, cfg Config, logger *slog.Logger) *RetryClient {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	def := DefaultConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = def.InitialDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = def.MaxDelay
	}
	if cfg.MaxDelay < cfg.InitialDelay {
		cfg.MaxDelay = cfg.InitialDelay
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RetryClient{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// Do executes the HTTP request with retry logic.
// It retries on retryable status codes (429, 500, 502, 503, 504) and
// transient network errors. It does not retry on other client errors or
// after the request context is done. On the final attempt the response is
// returned as-is so the caller can inspect the status code and body.
func (rc *RetryClient) Do(req *http.Request) (*http.Response, error) {
	var lastErr error
	var retryAfter time.Duration

	for attempt := 1; attempt <= rc.cfg.MaxAttempts; attempt++ {
		if err := req.Context().Err(); err != nil {
			if lastErr != nil {
				return nil, fmt.Errorf("%w (last error: %v)", err, lastErr)
			}
			return nil, err
		}

		if attempt > 1 {
			// Reset request body for retry if applicable
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, fmt.Errorf("httpretry: failed to reset request body: %w", err)
				}
				req.Body = body
			}

			delay := rc.calculateDelay(attempt-1, retryAfter)
			rc.logger.Debug("retrying request",
				"attempt", attempt,
				"max_attempts", rc.cfg.MaxAttempts,
				"method", req.Method,
				"host", req.URL.Host,
				"path", req.URL.Path,
				"delay", delay,
				"error", lastErr)

			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-req.Context().Done():
				timer.Stop()
				return nil, fmt.Errorf("%w (last error: %v)", req.Context().Err(), lastErr)
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

		if !isRetryableStatus(resp.StatusCode) {
			return resp, nil
		}

		if attempt == rc.cfg.MaxAttempts {
			return resp, nil
		}

		retryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))

		// Drain body for connection reuse, then retry
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		lastErr = fmt.Errorf("httpretry: server returned retryable status %d", resp.StatusCode)
	}

	return nil, fmt.Errorf("httpretry: giving up after %d attempts: %w",
		rc.cfg.MaxAttempts, util.NewRetryableError(lastErr, int(retryAfter/time.Second)))
}

// calculateDelay returns the backoff duration before the given retry.
// Uses exponential backoff with full jitter: random(0, min(maxDelay, initialDelay * 2^(retry-1))).
// A server supplied Retry-After takes precedence, capped at maxDelay.
func (rc *RetryClient) calculateDelay(retry int, retryAfter time.Duration) time.Duration {
	if retryAfter > 0 {
		if retryAfter > rc.cfg.MaxDelay {
			return rc.cfg.MaxDelay
		}
		return retryAfter
	}

	expDelay := float64(rc.cfg.InitialDelay) * math.Pow(2, float64(retry-1))
	if expDelay > float64(rc.cfg.MaxDelay) {
		expDelay = float64(rc.cfg.MaxDelay)
	}

	jittered := time.Duration(rand.Float64() * expDelay)

	// Avoid busy-looping, but never wait longer than the configured start
	floor := 100 * time.Millisecond
	if rc.cfg.InitialDelay < floor {
		floor = rc.cfg.InitialDelay
	}
	if jittered < floor {
		jittered = floor
	}

	return jittered
}

// parseRetryAfter reads a Retry-After header given in seconds
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

// isRetryableStatus returns true if the HTTP status code indicates a
// transient server error that should be retried
func isRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
