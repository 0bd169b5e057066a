package fetch

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"
)

// RendererOptions configures the headless browser
type RendererOptions struct {
	ChromePath string
	Headless   bool
	UserAgent  string
	Proxy      string
	Timeout    time.Duration
	// Settle is how long to let scripts run after navigation
	Settle time.Duration
}

// Renderer loads pages in headless Chrome for catalogs that build their
// listings client-side. A browser is started per call.
type Renderer struct {
	opts RendererOptions
}

// NewRenderer creates a renderer. Chrome is located lazily.
func NewRenderer(opts RendererOptions) *Renderer {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.Settle <= 0 {
		opts.Settle = 500 * time.Millisecond
	}
	return &Renderer{opts: opts}
}

// Render navigates to the request URL and returns the rendered document.
// The status code is taken from the main document's network response.
func (r *Renderer) Render(ctx context.Context, req Request) (*Response, error) {
	target := req.FullURL()
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, r.allocatorOptions(req)...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	var statusCode int64
	header := make(http.Header)
	chromedp.ListenTarget(browserCtx, func(ev interface{}) {
		if ev, ok := ev.(*network.EventResponseReceived); ok && ev.Type == network.ResourceTypeDocument {
			if statusCode != 0 {
				return
			}
			statusCode = ev.Response.Status
			for k, v := range ev.Response.Headers {
				if s, ok := v.(string); ok {
					header.Set(k, s)
				}
			}
		}
	})

	extra := network.Headers{}
	for k, v := range req.Headers {
		if http.CanonicalHeaderKey(k) == "User-Agent" {
			continue
		}
		extra[k] = v
	}

	var htmlContent string
	err := chromedp.Run(browserCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(extra),
		chromedp.Navigate(target),
		chromedp.Sleep(r.opts.Settle),
		chromedp.OuterHTML("html", &htmlContent, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("chromedp execution failed: %w", err)
	}

	log.Debug().
		Str("url", target).
		Int64("status", statusCode).
		Dur("elapsed", time.Since(start)).
		Msg("Render complete")

	resp := &Response{
		URL:        target,
		StatusCode: int(statusCode),
		Header:     header,
		Body:       []byte(htmlContent),
	}
	if resp.StatusCode == 0 {
		resp.StatusCode = http.StatusOK
	}
	if !resp.OK() {
		return resp, &HTTPError{StatusCode: resp.StatusCode, URL: target}
	}
	return resp, nil
}

func (r *Renderer) allocatorOptions(req Request) []chromedp.ExecAllocatorOption {
	ua := r.opts.UserAgent
	if ua == "" {
		ua = req.Headers["User-Agent"]
	}
	if ua == "" {
		ua = DefaultUserAgent
	}

	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("headless", r.opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("window-size", "1920,1080"),
		chromedp.UserAgent(ua),
	}

	chromePath := r.opts.ChromePath
	if chromePath == "" {
		chromePath = FindChrome()
	}
	if chromePath != "" {
		opts = append([]chromedp.ExecAllocatorOption{chromedp.ExecPath(chromePath)}, opts...)
	}
	if r.opts.Proxy != "" {
		opts = append(opts, chromedp.ProxyServer(r.opts.Proxy))
	}
	return opts
}
