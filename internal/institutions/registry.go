// Package institutions holds one catalog strategy per supported institution.
package institutions

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/law-makers/uniscrape/internal/fetch"
	"github.com/law-makers/uniscrape/internal/pipeline"
	urlutil "github.com/law-makers/uniscrape/internal/utils/url"
	"github.com/law-makers/uniscrape/pkg/models"
)

// ErrUnknownInstitution is returned for slugs without a strategy
var ErrUnknownInstitution = errors.New("unknown institution")

// Options adjusts a strategy at construction
type Options struct {
	// BaseURL replaces the site origin for every request and link join
	BaseURL string
	// PageDelay overrides the site's page delay when non-nil
	PageDelay *time.Duration
	// Render fetches pages through the headless browser
	Render bool
	// Headers are merged over the site's own request headers
	Headers map[string]string
}

type constructor func(Options) pipeline.Strategy

var registry = map[string]constructor{
	"alfacollege":     newAlfaCollege,
	"drenthe-college": newDrentheCollege,
	"hanze":           newHanze,
	"nhl-stenden":     newNHLStenden,
	"noorderpoort":    newNoorderpoort,
	"ou":              newOU,
	"rug":             newRUG,
	"windesheim":      newWindesheim,
}

// Slugs returns every supported slug in fixed (alphabetical) order
func Slugs() []string {
	out := make([]string, 0, len(registry))
	for slug := range registry {
		out = append(out, slug)
	}
	sort.Strings(out)
	return out
}

// New returns the strategy for slug
func New(slug string, opts Options) (pipeline.Strategy, error) {
	ctor, ok := registry[slug]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownInstitution, slug)
	}
	return ctor(opts), nil
}

// Seeds returns the institution records of every supported slug
func Seeds() []models.Institution {
	var out []models.Institution
	for _, slug := range Slugs() {
		out = append(out, registry[slug](Options{}).Site().Institution)
	}
	return out
}

// base carries what every strategy shares: site description, origin and headers
type base struct {
	site    pipeline.Site
	origin  string
	headers map[string]string
	render  bool
}

func newBase(site pipeline.Site, origin string, headers map[string]string, opts Options) base {
	b := base{site: site, origin: origin, headers: make(map[string]string), render: opts.Render}
	if opts.BaseURL != "" {
		b.origin = opts.BaseURL
	}
	if opts.PageDelay != nil {
		b.site.Pagination.PageDelay = *opts.PageDelay
	}
	for k, v := range headers {
		b.headers[k] = v
	}
	for k, v := range opts.Headers {
		b.headers[k] = v
	}
	return b
}

// Site implements pipeline.Strategy
func (b base) Site() pipeline.Site {
	return b.site
}

func (b base) request(path string, query url.Values) fetch.Request {
	return fetch.Request{
		URL:     urlutil.Join(b.origin, path),
		Query:   query,
		Headers: b.headers,
		Render:  b.render,
	}
}

// link makes a scraped href absolute against the origin
func (b base) link(href *string) *string {
	return pipeline.JoinURL(b.origin, href)
}

// Shared request header sets
const (
	chromeUA    = fetch.DefaultUserAgent
	macChromeUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/136.0.0.0 Safari/537.36"
	acceptHTML  = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"
)

func browserHeaders() map[string]string {
	return map[string]string{
		"User-Agent":      chromeUA,
		"Accept":          acceptHTML,
		"Accept-Language": "en-US,en;q=0.5",
	}
}
