package httpclient

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimitedClient keeps outbound calls under an upstream's request quota.
// Callers wait for a token; a call whose wait would outlast its context
// fails without being sent.
type RateLimitedClient struct {
	next    Doer
	limiter *rate.Limiter
	name    string
}

// NewRateLimitedClient allows rps requests per second with the given burst.
func NewRateLimitedClient(next Doer, name string, rps float64, burst int) *RateLimitedClient {
	return &RateLimitedClient{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		name:    name,
	}
}

// Do implements Doer.
func (c *RateLimitedClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s: rate limit: %w", c.name, err)
	}
	return c.next.Do(ctx, req)
}
