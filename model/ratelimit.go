package model

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimited throttles calls to an underlying client with a token bucket.
// Each Complete and CompleteStream call consumes one token; waiting honours
// the request context.
type RateLimited struct {
	next    Client
	limiter *rate.Limiter
}

// NewRateLimited wraps next allowing rps calls per second with the given burst.
// A non-positive rps disables limiting.
func NewRateLimited(next Client, rps float64, burst int) *RateLimited {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{next: next, limiter: rate.NewLimiter(limit, burst)}
}

// Complete implements Client.
func (r *RateLimited) Complete(ctx context.Context, req Request) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait for %s: %w", req.Model, err)
	}
	return r.next.Complete(ctx, req)
}

// CompleteStream implements Client.
func (r *RateLimited) CompleteStream(ctx context.Context, req Request) (<-chan string, <-chan error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return StreamError(fmt.Errorf("rate limit wait for %s: %w", req.Model, err))
	}
	return r.next.CompleteStream(ctx, req)
}
