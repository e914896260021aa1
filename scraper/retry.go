package scraper

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
	log "github.com/sirupsen/logrus"
)

type retryFetcher struct {
	next    Fetcher
	retries uint64
	base    time.Duration
}

// WithRetry wraps next so that transient failures are retried with
// exponential backoff. A non-positive retry count returns next unchanged.
func WithRetry(next Fetcher, retries int, base time.Duration) Fetcher {
	if retries <= 0 {
		return next
	}
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	return &retryFetcher{
		next:    next,
		retries: uint64(retries),
		base:    base,
	}
}

func (r *retryFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	attempt := 0

	backoff := retry.WithMaxRetries(r.retries, retry.WithJitterPercent(10, retry.NewExponential(r.base)))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		var err error
		body, err = r.next.Fetch(ctx, url)
		if err == nil {
			return nil
		}
		if Retryable(err) {
			log.Debugf("Retrying %s after attempt %d: %v", url, attempt, err)
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// Retryable reports whether err is worth another attempt: transport
// failures, throttling and server errors. Cancellation never is.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		return false
	}

	switch {
	case fetchErr.StatusCode == 0:
		return true
	case fetchErr.StatusCode == http.StatusTooManyRequests:
		return true
	case fetchErr.StatusCode >= 500:
		return true
	default:
		return false
	}
}
