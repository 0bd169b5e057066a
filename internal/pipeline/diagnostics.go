package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/law-makers/uniscrape/internal/fetch"
)

// Diagnostics receives raw fetched pages for offline inspection
type Diagnostics interface {
	Dump(slug string, page int, resp *fetch.Response)
}

// NopDiagnostics discards everything
type NopDiagnostics struct{}

// Dump implements Diagnostics
func (NopDiagnostics) Dump(string, int, *fetch.Response) {}

// DirDiagnostics writes each page body to Dir as <slug>-page-<n>.<ext>
type DirDiagnostics struct {
	Dir string
}

// Dump implements Diagnostics
func (d DirDiagnostics) Dump(slug string, page int, resp *fetch.Response) {
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		log.Warn().Err(err).Str("dir", d.Dir).Msg("Failed to create dump directory")
		return
	}
	ext := "html"
	if resp.IsJSON() {
		ext = "json"
	}
	path := filepath.Join(d.Dir, fmt.Sprintf("%s-page-%d.%s", slug, page, ext))
	if err := os.WriteFile(path, resp.Body, 0o644); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to dump page")
		return
	}
	log.Debug().Str("path", path).Msg("Page dumped")
}

// Dump is one page captured by a Recorder
type Dump struct {
	Slug string
	Page int
	Body string
}

// Recorder keeps dumps in memory
type Recorder struct {
	mu    sync.Mutex
	Dumps []Dump
}

// Dump implements Diagnostics
func (r *Recorder) Dump(slug string, page int, resp *fetch.Response) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Dumps = append(r.Dumps, Dump{Slug: slug, Page: page, Body: resp.Text()})
}
