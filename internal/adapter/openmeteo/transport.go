// Package openmeteo implements the location resolver and hourly series
// fetcher against the Open-Meteo geocoding and forecast APIs.
package openmeteo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/couchcryptid/weather-ingest/internal/domain"
	"github.com/sony/gobreaker"
)

// RetryPolicy bounds the transport-level retry behaviour shared by both
// clients. Retries apply only to transport-class failures (network errors,
// 5xx, 429); payload problems are never retried.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryPolicy keeps the worst-case delay per upstream call bounded to
// a few seconds so a slow location cannot stall the whole run.
var DefaultRetryPolicy = RetryPolicy{
	MaxRetries: 3,
	BaseDelay:  500 * time.Millisecond,
	MaxDelay:   5 * time.Second,
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})
}

var errRetryable = errors.New("retryable upstream status")

// doWithRetry executes buildRequest through the circuit breaker, retrying
// retryable failures with exponential backoff up to policy.MaxRetries.
// Returned errors wrap domain.ErrTransport.
func doWithRetry(
	ctx context.Context,
	client *http.Client,
	cb *gobreaker.CircuitBreaker,
	policy RetryPolicy,
	buildRequest func() (*http.Request, error),
) (*http.Response, error) {
	var lastErr error

	for attempt := 0; ; attempt++ {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrTransport, ctx.Err())
		}

		req, err := buildRequest()
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req = req.WithContext(ctx)

		result, err := cb.Execute(func() (any, error) {
			resp, doErr := client.Do(req)
			if doErr != nil {
				return nil, doErr
			}
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				resp.Body.Close()
				return nil, fmt.Errorf("%w: status %d", errRetryable, resp.StatusCode)
			}
			return resp, nil
		})
		if err == nil {
			return result.(*http.Response), nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: circuit open: %w", domain.ErrTransport, err)
		}

		lastErr = err
		if attempt >= policy.MaxRetries {
			return nil, fmt.Errorf("%w: %w", domain.ErrTransport, lastErr)
		}

		delay := policy.BaseDelay << attempt
		if policy.MaxDelay > 0 && delay > policy.MaxDelay {
			delay = policy.MaxDelay
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("%w: %w", domain.ErrTransport, ctx.Err())
		case <-timer.C:
		}
	}
}
