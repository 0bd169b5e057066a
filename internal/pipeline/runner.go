package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/law-makers/uniscrape/internal/extract"
	"github.com/law-makers/uniscrape/internal/fetch"
	"github.com/law-makers/uniscrape/internal/ratelimit"
	"github.com/law-makers/uniscrape/internal/runctx"
	"github.com/law-makers/uniscrape/pkg/models"
)

// Fetcher issues one page request
type Fetcher interface {
	Fetch(ctx context.Context, req fetch.Request) (*fetch.Response, error)
}

// Repository is the storage the runner writes to
type Repository interface {
	EnsureInstitution(ctx context.Context, inst models.Institution) (*models.Institution, error)
	UpsertCourse(ctx context.Context, institutionID int64, f models.CourseFields) (*models.Course, bool, error)
	InsertCourse(ctx context.Context, institutionID int64, f models.CourseFields) (*models.Course, error)
	DeleteCourses(ctx context.Context, institutionID int64) (int64, error)
	ListCourses(ctx context.Context, institutionID int64) ([]models.Course, error)
}

// Options configures a Runner
type Options struct {
	// Limiter receives each site's page delay; nil skips pacing setup
	Limiter     ratelimit.RateLimiter
	Diagnostics Diagnostics
	// Debug adds extraction notes and skipped records to the report
	Debug bool
}

// Runner executes strategies against a fetcher and repository
type Runner struct {
	repo    Repository
	fetcher Fetcher
	limiter ratelimit.RateLimiter
	diag    Diagnostics
	debug   bool
}

// NewRunner creates a Runner
func NewRunner(repo Repository, fetcher Fetcher, opts Options) *Runner {
	diag := opts.Diagnostics
	if diag == nil {
		diag = NopDiagnostics{}
	}
	return &Runner{
		repo:    repo,
		fetcher: fetcher,
		limiter: opts.Limiter,
		diag:    diag,
		debug:   opts.Debug,
	}
}

// run carries the mutable state of one institution run
type run struct {
	*Runner
	strategy Strategy
	site     Site
	report   *Report
	inst     *models.Institution
	seen     TitleSet
	logger   zerolog.Logger
}

// Run scrapes one institution. It never returns nil and never panics on
// per-page or per-record faults; fatal faults yield a zero-count report.
func (r *Runner) Run(ctx context.Context, s Strategy) *Report {
	site := s.Site()
	ctx = runctx.WithRun(ctx, site.Institution.Slug)

	st := &run{
		Runner:   r,
		strategy: s,
		site:     site,
		report:   NewReport(site.Institution, site.Policy),
		seen:     make(TitleSet),
		logger:   runctx.Logger(ctx),
	}
	st.report.RunID = runctx.FromContext(ctx).ID

	st.logger.Info().
		Str("policy", string(site.Policy)).
		Str("pagination", site.Pagination.Mode.String()).
		Msg("Starting scrape")

	if f := st.init(ctx); f != nil {
		st.logger.Error().Err(f).Msg("Scrape aborted")
		return st.report.Abort(f)
	}

	st.report.State = StateFetching
	if f := st.paginate(ctx); f != nil {
		st.logger.Error().Err(f).Msg("Scrape aborted")
		return st.report.Abort(f)
	}

	courses, err := r.repo.ListCourses(ctx, st.inst.ID)
	if err != nil {
		st.report.AddFault(NewFault(KindPersistence, 0, "Failed to list courses", err))
	}
	st.report.Courses = courses
	st.report.finish()

	st.logger.Info().
		Int("processed", st.report.CoursesProcessed).
		Int("pages", st.report.PagesScraped).
		Int("errors", len(st.report.Faults)).
		Dur("elapsed", st.report.Duration()).
		Msg("Scrape finished")
	return st.report
}

// init ensures the institution row and applies the replace policy wipe
func (st *run) init(ctx context.Context) *Fault {
	inst, err := st.repo.EnsureInstitution(ctx, st.site.Institution)
	if err != nil {
		return NewFault(KindFatal, 0, "Failed to ensure institution "+st.site.Institution.Slug, err)
	}
	st.inst = inst
	st.report.Institution = *inst

	if st.limiter != nil {
		if host := ratelimit.Host(st.strategy.Request(st.site.Pagination.First).URL); host != "" {
			st.limiter.SetDelay(host, st.site.Pagination.PageDelay)
		}
	}

	if st.site.Policy == models.PolicyReplace {
		n, err := st.repo.DeleteCourses(ctx, inst.ID)
		if err != nil {
			return NewFault(KindFatal, 0, "Failed to clear existing courses", err)
		}
		st.logger.Debug().Int64("deleted", n).Msg("Existing courses cleared")
	}
	return nil
}

// paginate walks the pages in order. Only a fatal fault is returned.
func (st *run) paginate(ctx context.Context) *Fault {
	p := st.site.Pagination
	total := p.Pages
	if total <= 0 {
		total = 1
	}

	for i := 0; ; i++ {
		switch p.Mode {
		case SinglePage:
			if i > 0 {
				return nil
			}
		case KnownTotal:
			if i >= total {
				return nil
			}
		case ProbeUntilEmpty:
			if p.Pages > 0 && i >= p.Pages {
				return nil
			}
		}

		if err := ctx.Err(); err != nil {
			st.report.AddFault(NewFault(KindTransport, p.First+i, "Scrape cancelled", err))
			return nil
		}
		if i > 0 && p.BatchSize > 0 && i%p.BatchSize == 0 {
			st.logger.Debug().Dur("delay", p.BatchDelay).Msg("Batch complete, pausing")
			if err := ratelimit.Pause(ctx, p.BatchDelay); err != nil {
				st.report.AddFault(NewFault(KindTransport, p.First+i, "Scrape cancelled", err))
				return nil
			}
		}

		page := p.First + i
		res, f := st.page(ctx, page)
		if f != nil {
			if i == 0 && p.RequireFirstPage {
				return NewFault(KindFatal, page, f.Message, f.Underlying)
			}
			st.report.AddFault(f)
			if p.Mode == ProbeUntilEmpty && f.Kind == KindTransport {
				return nil
			}
			continue
		}

		if i == 0 && p.Mode == KnownTotal && res.TotalPages > 0 {
			total = res.TotalPages
			st.logger.Debug().Int("total_pages", total).Msg("Total pages declared")
		}
		if p.Mode == ProbeUntilEmpty && len(res.Records) == 0 {
			st.logger.Debug().Int("page", page).Msg("Empty page, stopping")
			return nil
		}
	}
}

// page fetches, extracts and applies one page
func (st *run) page(ctx context.Context, page int) (*Extraction, *Fault) {
	logger := st.logger.With().Int("page", page).Logger()
	req := st.strategy.Request(page)

	resp, err := st.fetcher.Fetch(ctx, req)
	if err != nil {
		logger.Warn().Err(err).Str("url", req.FullURL()).Msg("Page fetch failed")
		return nil, NewFault(KindTransport, page, fmt.Sprintf("Failed to fetch page %d", page), err).
			WithDetail("url", req.FullURL())
	}
	st.report.PagesScraped++
	st.diag.Dump(st.site.Institution.Slug, page, resp)

	ex, err := st.strategy.Extract(page, resp)
	if err != nil {
		logger.Warn().Err(err).Msg("Page extraction failed")
		return nil, NewFault(KindExtraction, page, fmt.Sprintf("Failed to parse page %d", page), err)
	}

	if st.debug {
		for _, n := range ex.Notes {
			st.report.Debugf("Page %d: %s", page, n)
		}
	}
	for _, e := range ex.Faults {
		st.report.AddFault(NewFault(KindExtraction, page, fmt.Sprintf("Page %d: skipped record", page), e))
	}
	if len(ex.Records) == 0 {
		logger.Debug().Msg("No programs found on page")
		if st.debug {
			st.report.Debugf("No programs found on page %d", page)
		}
	}

	for _, rec := range ex.Records {
		st.apply(ctx, page, rec)
	}
	return ex, nil
}

// apply normalizes one record and persists it under the site's policy
func (st *run) apply(ctx context.Context, page int, rec extract.Record) {
	raw := rec.Value("title")
	fields, err := st.strategy.Normalize(rec)
	switch {
	case errors.Is(err, ErrSkip):
		if st.debug {
			st.report.Debugf("Page %d: skipped %q", page, raw)
		}
		return
	case err != nil:
		msg := fmt.Sprintf("%s page %d: rejected program", st.site.Institution.Slug, page)
		if raw != "" {
			msg += fmt.Sprintf(" %q", raw)
		}
		f := NewFault(KindNormalization, page, msg, err)
		if rec.Snippet != "" {
			f.WithDetail("snippet", rec.Snippet)
		}
		st.report.AddFault(f)
		if st.debug && rec.Snippet != "" {
			st.report.Debugf("Page %d source: %s", page, rec.Snippet)
		}
		return
	}

	if fields.Location == "" {
		fields.Location = st.inst.City
	}
	if st.site.Dedup && st.seen.Has(fields.Title) {
		st.logger.Debug().Str("title", fields.Title).Msg("Duplicate title skipped")
		return
	}

	if st.site.Policy == models.PolicyReplace {
		_, err = st.repo.InsertCourse(ctx, st.inst.ID, fields)
	} else {
		_, _, err = st.repo.UpsertCourse(ctx, st.inst.ID, fields)
	}
	if err != nil {
		st.logger.Error().Err(err).Str("title", fields.Title).Int("page", page).Msg("Failed to save course")
		st.report.AddFault(NewFault(KindPersistence, page,
			fmt.Sprintf("Error saving program %q on page %d", fields.Title, page), err))
		return
	}
	// only stored titles count as seen, so a later copy can still land
	if st.site.Dedup {
		st.seen.Add(fields.Title)
	}
	st.report.CoursesProcessed++
}
