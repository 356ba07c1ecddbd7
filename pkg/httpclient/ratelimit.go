package httpclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

var rateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "storefront_http_client_rate_limited_total",
	Help: "Requests that waited for the client-side rate limiter",
})

// RateLimitConfig bounds the request rate towards one backend.
type RateLimitConfig struct {
	// RPS is the sustained requests per second. 0 disables limiting.
	RPS int

	// Burst is the number of requests allowed at once.
	Burst int
}

// NewLimiter returns the limiter for cfg, or nil when limiting is disabled.
// One limiter may be shared by several RateLimitedClients.
func NewLimiter(cfg RateLimitConfig) *rate.Limiter {
	if cfg.RPS <= 0 {
		return nil
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(cfg.RPS), burst)
}

// RateLimitedClient delays requests until the limiter admits them.
type RateLimitedClient struct {
	next    Doer
	limiter *rate.Limiter
}

// NewRateLimitedClient wraps next. A nil limiter passes every request
// through.
func NewRateLimitedClient(next Doer, limiter *rate.Limiter) *RateLimitedClient {
	return &RateLimitedClient{next: next, limiter: limiter}
}

// Do waits for a slot and sends req. A cancelled ctx aborts the wait.
func (c *RateLimitedClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if c.limiter != nil {
		if !c.limiter.Allow() {
			rateLimitedTotal.Inc()
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limit wait: %w", err)
			}
		}
	}
	return c.next.Do(ctx, req)
}
