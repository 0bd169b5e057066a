package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/law-makers/uniscrape/internal/app"
	"github.com/law-makers/uniscrape/internal/config"
)

// testApp points hanze at upstream and opens a fresh database
func testApp(t *testing.T, upstream string) *app.Application {
	t.Helper()
	zero := time.Duration(0)
	cfg := config.Default()
	cfg.DBPath = filepath.Join(t.TempDir(), "cli.db")
	cfg.LogLevel = "error"
	cfg.Sites = map[string]config.SiteConfig{"hanze": {BaseURL: upstream, PageDelay: &zero}}

	a, err := app.New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close(context.Background()) })
	return a
}

func hanzeUpstream(t *testing.T, status int) *httptest.Server {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"totalPages":1,"results":[{"title":"Nursing","url":"/nursing","labels":["Bachelor"]}]}`))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func init() {
	gin.SetMode(gin.TestMode)
}

func TestSetApp(t *testing.T) {
	cmd := &cobra.Command{}
	assert.Nil(t, GetAppFromCmd(cmd))
	assert.Nil(t, GetAppFromCmd(nil))

	a := &app.Application{}
	SetApp(cmd, a)
	assert.Same(t, a, GetAppFromCmd(cmd))

	SetApp(cmd, nil)
	assert.Nil(t, GetAppFromCmd(cmd))
}

// get sends a request straight to the router
func get(router http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// TestServer_ScrapeJSON verifies a successful scrape returns the report
func TestServer_ScrapeJSON(t *testing.T) {
	router := newRouter(testApp(t, hanzeUpstream(t, http.StatusOK).URL))

	w := get(router, http.MethodGet, "/api/scrape/hanze")
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.EqualValues(t, 1, body["courses_processed"])
	assert.EqualValues(t, 1, body["pages_scraped"])
}

// TestServer_ScrapeJSONFatal verifies a fatal run maps to 500 with message and error
func TestServer_ScrapeJSONFatal(t *testing.T) {
	a := testApp(t, hanzeUpstream(t, http.StatusOK).URL)
	a.Config.Sites["alfacollege"] = config.SiteConfig{BaseURL: hanzeUpstream(t, http.StatusServiceUnavailable).URL}
	router := newRouter(a)

	w := get(router, http.MethodGet, "/api/scrape/alfacollege")
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body["message"], "Alfa-college")
	assert.NotEmpty(t, body["error"])
}

// TestServer_UnknownInstitution verifies unknown slugs are 404 on both scrape routes
func TestServer_UnknownInstitution(t *testing.T) {
	router := newRouter(testApp(t, hanzeUpstream(t, http.StatusOK).URL))

	assert.Equal(t, http.StatusNotFound, get(router, http.MethodGet, "/scrape/nope").Code)

	w := get(router, http.MethodGet, "/api/scrape/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Unknown institution", body["message"])
}

// TestServer_HTMLPages verifies the programs and stats pages render as HTML
func TestServer_HTMLPages(t *testing.T) {
	router := newRouter(testApp(t, hanzeUpstream(t, http.StatusOK).URL))

	w := get(router, http.MethodGet, "/scrape/hanze")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Nursing")

	w = get(router, http.MethodGet, "/stats")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/html"))

	assert.Equal(t, http.StatusMethodNotAllowed, get(router, http.MethodPost, "/stats").Code)
}

func TestWrapText(t *testing.T) {
	out := wrapText("one two three four\n\nfive", 9)
	assert.Equal(t, "one two\nthree\nfour\n\nfive", out)
}
