// Package proxy rotates outbound fetches across a list of HTTP/SOCKS proxies.
package proxy

import (
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultCooldown is how long a failed proxy is skipped
const DefaultCooldown = 5 * time.Minute

// Pool manages a list of proxies with round-robin rotation and a failure cooldown
type Pool struct {
	proxies  []*url.URL
	index    int
	last     *url.URL
	cooldown time.Duration
	mu       sync.Mutex
	failed   map[string]time.Time
}

// NewPool parses raw proxy URLs into a rotation pool
func NewPool(raw []string) (*Pool, error) {
	p := &Pool{
		cooldown: DefaultCooldown,
		failed:   make(map[string]time.Time),
	}
	for _, r := range raw {
		u, err := url.Parse(r)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("invalid proxy URL %q", r)
		}
		p.proxies = append(p.proxies, u)
	}
	return p, nil
}

// Len returns the number of configured proxies
func (p *Pool) Len() int {
	return len(p.proxies)
}

// Next returns the next healthy proxy, or nil when the pool is empty.
// When every proxy is cooling down, rotation continues anyway.
func (p *Pool) Next() *url.URL {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.proxies) == 0 {
		return nil
	}

	for i := 0; i < len(p.proxies); i++ {
		candidate := p.proxies[p.index]
		p.index = (p.index + 1) % len(p.proxies)

		if failTime, ok := p.failed[candidate.String()]; ok {
			if time.Since(failTime) < p.cooldown {
				continue
			}
			delete(p.failed, candidate.String())
		}
		p.last = candidate
		return candidate
	}

	candidate := p.proxies[p.index]
	p.index = (p.index + 1) % len(p.proxies)
	p.last = candidate
	return candidate
}

// Proxy satisfies http.Transport.Proxy
func (p *Pool) Proxy(_ *http.Request) (*url.URL, error) {
	return p.Next(), nil
}

// MarkLastFailed puts the most recently handed out proxy on cooldown
func (p *Pool) MarkLastFailed() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last == nil {
		return
	}
	p.failed[p.last.String()] = time.Now()
	log.Debug().Str("proxy", p.last.Redacted()).Msg("Proxy marked as failed")
}

// MarkHealthy clears the failure status of a proxy
func (p *Pool) MarkHealthy(proxy string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.failed, proxy)
}

// MarkLastHealthy clears the cooldown of the most recently handed out proxy
func (p *Pool) MarkLastHealthy() {
	p.mu.Lock()
	last := p.last
	p.mu.Unlock()
	if last != nil {
		p.MarkHealthy(last.String())
	}
}
