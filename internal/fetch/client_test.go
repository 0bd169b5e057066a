package fetch

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/andybalholm/brotli"
)

func TestFetchSendsHeadersAndQuery(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Referer"); got != "https://example.com/list" {
			t.Errorf("Expected Referer header, got %q", got)
		}
		if got := r.Header.Get("X-Requested-With"); got != "XMLHttpRequest" {
			t.Errorf("Expected X-Requested-With header, got %q", got)
		}
		if got := r.URL.Query().Get("page"); got != "2" {
			t.Errorf("Expected page=2, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Write([]byte(`{"totalPages":3}`))
	}))
	defer ts.Close()

	c := NewClient(nil, nil, Options{})
	resp, err := c.Fetch(context.Background(), Request{
		URL:   ts.URL + "/api",
		Query: url.Values{"page": {"2"}},
		Headers: map[string]string{
			"referer":          "https://example.com/list",
			"X-Requested-With": "XMLHttpRequest",
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.IsJSON() {
		t.Error("Expected JSON content type")
	}

	var body struct {
		TotalPages int `json:"totalPages"`
	}
	if err := resp.JSON(&body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if body.TotalPages != 3 {
		t.Errorf("Expected totalPages 3, got %d", body.TotalPages)
	}
}

func TestFetchUserAgentOverride(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(r.Header.Get("User-Agent")))
	}))
	defer ts.Close()

	c := NewClient(nil, nil, Options{})
	resp, err := c.Fetch(context.Background(), Request{URL: ts.URL, Headers: map[string]string{"User-Agent": "site-ua"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text() != "site-ua" {
		t.Errorf("Expected per-request UA, got %q", resp.Text())
	}

	c = NewClient(nil, nil, Options{UserAgent: "global-ua"})
	resp, err = c.Fetch(context.Background(), Request{URL: ts.URL, Headers: map[string]string{"User-Agent": "site-ua"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text() != "global-ua" {
		t.Errorf("Expected configured UA to win, got %q", resp.Text())
	}
}

func TestFetchNon2xxReturnsHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("down"))
	}))
	defer ts.Close()

	c := NewClient(nil, nil, Options{})
	resp, err := c.Fetch(context.Background(), Request{URL: ts.URL})
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("Expected *HTTPError, got %v", err)
	}
	if httpErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", httpErr.StatusCode)
	}
	if resp == nil || resp.Text() != "down" {
		t.Error("Expected response body alongside the error")
	}
}

func TestFetchTransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := ts.URL
	ts.Close()

	c := NewClient(nil, nil, Options{})
	resp, err := c.Fetch(context.Background(), Request{URL: addr})
	if err == nil {
		t.Fatal("Expected transport error")
	}
	if resp != nil {
		t.Error("Expected no response on transport error")
	}
}

func TestFetchDecodesCompressedBodies(t *testing.T) {
	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	zw.Write([]byte("<p>gzip</p>"))
	zw.Close()

	var br bytes.Buffer
	bw := brotli.NewWriter(&br)
	bw.Write([]byte("<p>brotli</p>"))
	bw.Close()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/gzip":
			w.Header().Set("Content-Encoding", "gzip")
			w.Write(gz.Bytes())
		case "/br":
			w.Header().Set("Content-Encoding", "br")
			w.Write(br.Bytes())
		}
	}))
	defer ts.Close()

	c := NewClient(nil, nil, Options{})
	for path, want := range map[string]string{"/gzip": "<p>gzip</p>", "/br": "<p>brotli</p>"} {
		resp, err := c.Fetch(context.Background(), Request{URL: ts.URL + path})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", path, err)
		}
		if resp.Text() != want {
			t.Errorf("%s: Expected %q, got %q", path, want, resp.Text())
		}
	}
}

func TestResponseDocumentToleratesMalformedHTML(t *testing.T) {
	resp := &Response{Body: []byte(`<div class="card"><h2>Open <b>tag</div><p>after`)}
	doc, err := resp.Document()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Find("div.card h2").Length() != 1 {
		t.Error("Expected recoverable card markup")
	}
}

func TestResponseJSONEmptyBody(t *testing.T) {
	resp := &Response{Body: []byte("  ")}
	var v any
	if err := resp.JSON(&v); !errors.Is(err, ErrEmptyBody) {
		t.Errorf("Expected ErrEmptyBody, got %v", err)
	}
}

func TestRequestFullURL(t *testing.T) {
	r := Request{URL: "https://example.com/list?lang=en", Query: url.Values{"page": {"3"}}}
	if got := r.FullURL(); got != "https://example.com/list?lang=en&page=3" {
		t.Errorf("Unexpected URL: %s", got)
	}
}
