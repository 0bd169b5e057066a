// Package fetch issues outbound GET requests for catalog pages.
package fetch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Common fetch errors
var (
	ErrEmptyBody = errors.New("empty response body")
)

// Request describes one page fetch
type Request struct {
	URL     string
	Query   url.Values
	Headers map[string]string
	// Render loads the page in a headless browser instead of a plain GET
	Render bool
}

// FullURL returns URL with Query merged into any existing query string
func (r Request) FullURL() string {
	if len(r.Query) == 0 {
		return r.URL
	}
	u, err := url.Parse(r.URL)
	if err != nil {
		return r.URL
	}
	q := u.Query()
	for k, vs := range r.Query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Response is a fetched page
type Response struct {
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports whether the status is 2xx
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsJSON reports whether the response declares a JSON content type
func (r *Response) IsJSON() bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

// JSON decodes the body into v
func (r *Response) JSON(v any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return ErrEmptyBody
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode JSON: %w", err)
	}
	return nil
}

// Document parses the body as HTML. The parser recovers from malformed markup.
func (r *Response) Document() (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// Text returns the body as a string
func (r *Response) Text() string {
	return string(r.Body)
}

// HTTPError is returned alongside the response for non-2xx statuses
type HTTPError struct {
	StatusCode int
	Status     string
	URL        string
}

func (e *HTTPError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("HTTP %s", e.Status)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// GetStatusCode returns the HTTP status code
func (e *HTTPError) GetStatusCode() int {
	return e.StatusCode
}
