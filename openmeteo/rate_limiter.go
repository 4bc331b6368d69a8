package openmeteo

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimitedFetcher wraps a Fetcher so upstream calls respect the
// provider's fair-use limits.
type RateLimitedFetcher struct {
	fetcher Fetcher
	limiter *rate.Limiter
}

// NewRateLimitedFetcher creates a new rate limited fetcher.
// rps is the maximum requests per second allowed (can be fractional)
// burst is the maximum burst size allowed
func NewRateLimitedFetcher(fetcher Fetcher, rps float64, burst int) *RateLimitedFetcher {
	return &RateLimitedFetcher{
		fetcher: fetcher,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// FetchForecast waits for the limiter (or context cancellation) and then
// forwards to the wrapped fetcher.
func (r *RateLimitedFetcher) FetchForecast(ctx context.Context, latitude string, longitude string) (*ForecastResponse, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limit wait canceled: %w", ErrFetch, err)
	}
	return r.fetcher.FetchForecast(ctx, latitude, longitude)
}
