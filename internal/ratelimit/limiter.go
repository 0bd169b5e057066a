// internal/ratelimit/limiter.go
package ratelimit

import (
	"context"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter paces outbound requests per host.
type RateLimiter interface {
	// Wait blocks until a request for the given URL can proceed.
	// If the context is cancelled first, an error is returned.
	Wait(ctx context.Context, urlStr string) error

	// SetDelay sets the minimum spacing between requests to host.
	SetDelay(host string, delay time.Duration)
}

// DomainLimiter enforces a fixed minimum delay between consecutive requests
// to the same host. Hosts without a configured delay use the default.
type DomainLimiter struct {
	limiters     map[string]*rate.Limiter
	mu           sync.RWMutex
	defaultDelay time.Duration
}

// NewDomainLimiter creates a limiter with the given default per-host delay.
// A zero delay means unlimited.
func NewDomainLimiter(defaultDelay time.Duration) *DomainLimiter {
	if defaultDelay < 0 {
		defaultDelay = 0
	}
	return &DomainLimiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultDelay: defaultDelay,
	}
}

// Wait blocks until the request for the given URL can proceed
func (dl *DomainLimiter) Wait(ctx context.Context, urlStr string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	host := Host(urlStr)
	if host == "" {
		// Invalid URL, let it proceed (will fail elsewhere)
		return nil
	}

	return dl.getLimiter(host).Wait(ctx)
}

// SetDelay updates the delay for a specific host
func (dl *DomainLimiter) SetDelay(host string, delay time.Duration) {
	dl.mu.Lock()
	defer dl.mu.Unlock()

	if limiter, exists := dl.limiters[host]; exists {
		limiter.SetLimit(every(delay))
		return
	}
	dl.limiters[host] = rate.NewLimiter(every(delay), 1)
}

// getLimiter returns or creates a rate limiter for the given host
func (dl *DomainLimiter) getLimiter(host string) *rate.Limiter {
	dl.mu.RLock()
	limiter, exists := dl.limiters[host]
	dl.mu.RUnlock()

	if exists {
		return limiter
	}

	dl.mu.Lock()
	defer dl.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := dl.limiters[host]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(every(dl.defaultDelay), 1)
	dl.limiters[host] = limiter
	return limiter
}

func every(delay time.Duration) rate.Limit {
	if delay <= 0 {
		return rate.Inf
	}
	return rate.Every(delay)
}

// Pause sleeps for d or until ctx is done.
func Pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Host extracts the host from a URL string
func Host(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return u.Host
}
