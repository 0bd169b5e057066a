// Package pipeline runs the generic fetch, paginate, extract, normalize and
// persist loop for one institution and reports the outcome.
package pipeline

import (
	"time"

	"github.com/law-makers/uniscrape/internal/extract"
	"github.com/law-makers/uniscrape/internal/fetch"
	"github.com/law-makers/uniscrape/pkg/models"
)

// PageMode selects how pagination terminates
type PageMode int

const (
	// KnownTotal walks pages until the total declared by the first
	// response, or Pagination.Pages when the site declares none.
	KnownTotal PageMode = iota
	// ProbeUntilEmpty stops on the first empty page or non-success response.
	ProbeUntilEmpty
	// SinglePage fetches one page holding the whole catalog.
	SinglePage
)

func (m PageMode) String() string {
	switch m {
	case KnownTotal:
		return "known-total"
	case ProbeUntilEmpty:
		return "probe-until-empty"
	case SinglePage:
		return "single-page"
	}
	return "unknown"
}

// Pagination describes an institution's page walk
type Pagination struct {
	Mode PageMode
	// First is the number of the first page, usually 0 or 1
	First int
	// Pages is the fixed page count for KnownTotal and the upper bound for
	// ProbeUntilEmpty. Zero means one page and no bound respectively.
	Pages int
	// PageDelay is the minimum spacing between requests to the site
	PageDelay time.Duration
	// BatchSize pages are fetched before pausing BatchDelay
	BatchSize  int
	BatchDelay time.Duration
	// RequireFirstPage makes a failed first fetch fatal
	RequireFirstPage bool
}

// Site is the static description of an institution's catalog
type Site struct {
	Institution models.Institution
	Policy      models.UpdatePolicy
	Pagination  Pagination
	// Dedup skips titles already emitted earlier in the run
	Dedup bool
}

// Extraction is what a strategy read from one page
type Extraction struct {
	Records []extract.Record
	// TotalPages as declared by the page, 0 when unknown
	TotalPages int
	// Faults are per-record extraction problems; the records were skipped
	Faults []error
	// Notes are debug lines for the report
	Notes []string
}

// Strategy adapts the pipeline to one institution
type Strategy interface {
	Site() Site
	// Request returns the fetch configuration for page n
	Request(page int) fetch.Request
	// Extract parses one fetched page into raw records
	Extract(page int, resp *fetch.Response) (*Extraction, error)
	// Normalize maps a raw record to course fields. Errors wrapping
	// ErrMissingField reject the record, ErrSkip drops it silently.
	Normalize(rec extract.Record) (models.CourseFields, error)
}
