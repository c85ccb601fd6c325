package fetch

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/archivist/internal/config"
	"github.com/JakeFAU/archivist/internal/logging"
	"github.com/JakeFAU/archivist/internal/metrics"
)

// RetryPolicy is an exponential backoff schedule without jitter.
type RetryPolicy struct {
	MaxRetries   int
	InitialDelay time.Duration
	Multiplier   float64
}

// DefaultRetryPolicy waits 1s, 2s and 4s before the three retries.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:   config.FetchMaxRetries,
		InitialDelay: config.FetchInitialDelay,
		Multiplier:   config.FetchBackoffMultiplier,
	}
}

// PolicyFromConfig builds a RetryPolicy from the fetch configuration. An unset
// configuration yields DefaultRetryPolicy; a multiplier below 1 keeps the default.
func PolicyFromConfig(cfg config.FetchConfig) RetryPolicy {
	p := DefaultRetryPolicy()
	if cfg == (config.FetchConfig{}) {
		return p
	}
	p.MaxRetries = max(cfg.MaxRetries, 0)
	p.InitialDelay = max(cfg.InitialDelay(), 0)
	if cfg.BackoffMultiplier >= 1 {
		p.Multiplier = cfg.BackoffMultiplier
	}
	return p
}

// ShouldRetry decides whether err is transient and retries remain. used is the
// number of retries already spent. Per-request timeouts are transient;
// cancellation is not.
func (p RetryPolicy) ShouldRetry(err error, used int) bool {
	if err == nil || used >= p.MaxRetries {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.ServerError()
	}
	return true
}

// Backoff returns InitialDelay * Multiplier^used.
func (p RetryPolicy) Backoff(used int) time.Duration {
	return time.Duration(float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(used)))
}

// Retrying wraps a Fetcher with the retry policy. 2xx responses are returned,
// 4xx responses fail at once, and 5xx responses or transport errors are
// retried after a backoff wait.
type Retrying struct {
	next    Fetcher
	policy  RetryPolicy
	sleeper Sleeper
	logger  *zap.Logger
	debug   logging.Debug
}

// NewRetrying builds a Retrying fetcher.
func NewRetrying(next Fetcher, policy RetryPolicy, sleeper Sleeper, logger *zap.Logger, debug logging.Debug) *Retrying {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retrying{
		next:    next,
		policy:  policy,
		sleeper: sleeper,
		logger:  logger.Named("fetch"),
		debug:   debug.Named("fetch"),
	}
}

// Fetch performs the GET, retrying transient failures.
func (r *Retrying) Fetch(ctx context.Context, url string) (Response, error) {
	for used := 0; ; used++ {
		resp, err := r.attempt(ctx, url)
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil || !r.policy.ShouldRetry(err, used) {
			return resp, err
		}

		delay := r.policy.Backoff(used)
		r.debug.Warn("fetch failed, retrying",
			zap.String("url", url),
			zap.Error(err),
			zap.Duration("delay", delay),
			zap.Int("attempts_left", r.policy.MaxRetries-used),
		)
		metrics.ObserveRetry(delay)
		if err := r.sleeper.Sleep(ctx, delay); err != nil {
			return Response{}, fmt.Errorf("retry wait: %w", err)
		}
	}
}

func (r *Retrying) attempt(ctx context.Context, url string) (Response, error) {
	resp, err := r.next.Fetch(ctx, url)
	if err != nil {
		metrics.ObserveFetchAttempt(url, metrics.OutcomeNetworkError, resp.Duration)
		return resp, err
	}

	switch {
	case resp.OK():
		metrics.ObserveFetchAttempt(url, metrics.OutcomeSuccess, resp.Duration)
		r.logger.Debug("fetch succeeded",
			zap.String("url", url),
			zap.Int("status", resp.StatusCode),
			zap.Int("bytes", len(resp.Body)),
		)
		return resp, nil
	case resp.StatusCode >= 400 && resp.StatusCode <= 499:
		metrics.ObserveFetchAttempt(url, metrics.OutcomeClientError, resp.Duration)
	case resp.StatusCode >= 500:
		metrics.ObserveFetchAttempt(url, metrics.OutcomeServerError, resp.Duration)
	default:
		metrics.ObserveFetchAttempt(url, metrics.OutcomeOtherStatus, resp.Duration)
	}
	return resp, &StatusError{URL: url, StatusCode: resp.StatusCode}
}
