package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"StockSync/internal/model"
	"StockSync/internal/period"
)

// StatusError is a non-200 HTTP answer from a price source.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d, body: %s", e.Code, e.Body)
}

// permanentError marks failures that retrying cannot fix, such as an
// undecodable body.
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

func permanent(err error) error { return &permanentError{err: err} }

// Retryable reports whether a fetch error is worth another attempt:
// network failures and timeouts, HTTP 429 and 5xx.
func Retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var pe *permanentError
	if errors.As(err, &pe) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= 500
	}
	return true
}

// RetryingFetcher retries transient failures of the wrapped fetcher with
// exponential backoff.
type RetryingFetcher struct {
	Fetcher  Fetcher
	Attempts int
	Backoff  time.Duration
	log      zerolog.Logger
}

// NewRetryingFetcher wraps f. attempts < 1 means a single attempt.
func NewRetryingFetcher(f Fetcher, attempts int, backoff time.Duration, log zerolog.Logger) *RetryingFetcher {
	if attempts < 1 {
		attempts = 1
	}
	return &RetryingFetcher{
		Fetcher:  f,
		Attempts: attempts,
		Backoff:  backoff,
		log:      log.With().Str("component", "retry").Str("source", f.Name()).Logger(),
	}
}

func (r *RetryingFetcher) Name() string { return r.Fetcher.Name() }

func (r *RetryingFetcher) FetchHistory(ctx context.Context, ticker string, w period.Window) (*model.RawFrame, error) {
	var lastErr error
	for i := 0; i < r.Attempts; i++ {
		frame, err := r.Fetcher.FetchHistory(ctx, ticker, w)
		if err == nil {
			return frame, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		if !Retryable(err) || i == r.Attempts-1 {
			break
		}
		wait := r.Backoff * time.Duration(1<<uint(i))
		r.log.Warn().Err(err).Str("ticker", ticker).Int("attempt", i+1).Int("max", r.Attempts).
			Dur("wait", wait).Msg("fetch failed, retrying")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	if r.Attempts > 1 && Retryable(lastErr) {
		return nil, fmt.Errorf("all %d attempts failed: %w", r.Attempts, lastErr)
	}
	return nil, lastErr
}
