package fetch

import (
	"context"
	"fmt"
	"net/http"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/law-makers/uniscrape/internal/proxy"
	"github.com/law-makers/uniscrape/internal/ratelimit"
)

// DefaultUserAgent is sent when neither the request nor the client sets one
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Options configures a Client
type Options struct {
	// UserAgent overrides every request's User-Agent when set
	UserAgent        string
	CloudflareBypass bool
	Proxies          *proxy.Pool
	Renderer         *Renderer
}

// Client fetches pages over HTTP using resty. It does not retry.
type Client struct {
	rc        *resty.Client
	limiter   ratelimit.RateLimiter
	userAgent string
	proxies   *proxy.Pool
	renderer  *Renderer
}

// NewClient wraps httpClient. The client's transport is adjusted for proxy
// rotation and the Cloudflare bypass when requested.
func NewClient(httpClient *http.Client, limiter ratelimit.RateLimiter, opts Options) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if limiter == nil {
		limiter = ratelimit.NewDomainLimiter(0)
	}

	if opts.Proxies != nil && opts.Proxies.Len() > 0 {
		if t, ok := httpClient.Transport.(*http.Transport); ok {
			t.Proxy = opts.Proxies.Proxy
		}
	}
	if opts.CloudflareBypass {
		base := httpClient.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		httpClient.Transport = cloudflarebp.AddCloudFlareByPass(base)
	}

	return &Client{
		rc:        resty.NewWithClient(httpClient),
		limiter:   limiter,
		userAgent: opts.UserAgent,
		proxies:   opts.Proxies,
		renderer:  opts.Renderer,
	}
}

// Fetch performs one GET. A transport failure returns an error and no
// response. A non-2xx status returns the response and an *HTTPError.
func (c *Client) Fetch(ctx context.Context, req Request) (*Response, error) {
	if err := c.limiter.Wait(ctx, req.URL); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	if req.Render && c.renderer != nil {
		return c.renderer.Render(ctx, req)
	}

	start := time.Now()
	log.Debug().
		Str("url", req.URL).
		Interface("query", req.Query).
		Msg("Starting fetch")

	r := c.rc.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetHeaders(c.headers(req))
	if len(req.Query) > 0 {
		r.SetQueryParamsFromValues(req.Query)
	}

	resp, err := r.Get(req.URL)
	if err != nil {
		if c.proxies != nil {
			c.proxies.MarkLastFailed()
		}
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}

	if c.proxies != nil {
		c.proxies.MarkLastHealthy()
	}

	raw := resp.RawBody()
	defer raw.Close()

	body, err := decodeBody(raw, resp.Header().Get("Content-Encoding"))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	out := &Response{
		URL:        req.FullURL(),
		StatusCode: resp.StatusCode(),
		Header:     resp.Header(),
		Body:       body,
	}
	if resp.RawResponse != nil && resp.RawResponse.Request != nil {
		out.URL = resp.RawResponse.Request.URL.String()
	}

	log.Debug().
		Str("url", out.URL).
		Int("status", out.StatusCode).
		Int("bytes", len(body)).
		Dur("elapsed", time.Since(start)).
		Msg("Fetch complete")

	if !out.OK() {
		return out, &HTTPError{StatusCode: out.StatusCode, Status: resp.Status(), URL: out.URL}
	}
	return out, nil
}

func (c *Client) headers(req Request) map[string]string {
	h := map[string]string{
		"User-Agent":      DefaultUserAgent,
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "nl-NL,nl;q=0.9,en-US;q=0.8,en;q=0.7",
		"Accept-Encoding": "gzip, deflate, br",
	}
	for k, v := range req.Headers {
		h[http.CanonicalHeaderKey(k)] = v
	}
	if c.userAgent != "" {
		h["User-Agent"] = c.userAgent
	}
	return h
}
