package pipeline

import (
	"fmt"
	"time"

	"github.com/law-makers/uniscrape/pkg/models"
)

// State is the lifecycle position of a run
type State string

const (
	StateInit     State = "INIT"
	StateFetching State = "FETCHING"
	StateDone     State = "DONE"
)

// Report accumulates the outcome of one institution run
type Report struct {
	RunID            string              `json:"run_id"`
	Institution      models.Institution  `json:"institution"`
	Policy           models.UpdatePolicy `json:"policy"`
	State            State               `json:"state"`
	Fatal            bool                `json:"fatal"`
	CoursesProcessed int                 `json:"courses_processed"`
	PagesScraped     int                 `json:"pages_scraped"`
	// Errors holds error and debug strings in the order they occurred
	Errors     []string        `json:"errors"`
	Faults     []*Fault        `json:"-"`
	Courses    []models.Course `json:"courses"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
}

// NewReport starts a report for inst
func NewReport(inst models.Institution, policy models.UpdatePolicy) *Report {
	return &Report{
		Institution: inst,
		Policy:      policy,
		State:       StateInit,
		Errors:      []string{},
		StartedAt:   time.Now(),
	}
}

// AddFault records a non-fatal fault
func (r *Report) AddFault(f *Fault) {
	r.Faults = append(r.Faults, f)
	r.Errors = append(r.Errors, f.Error())
}

// Debugf appends a debug line to the error list
func (r *Report) Debugf(format string, args ...any) {
	r.Errors = append(r.Errors, "Debug - "+fmt.Sprintf(format, args...))
}

// Abort turns the report into a fatal one: nothing processed, one error
func (r *Report) Abort(f *Fault) *Report {
	r.Fatal = true
	r.CoursesProcessed = 0
	r.PagesScraped = 0
	r.Faults = []*Fault{f}
	r.Errors = []string{f.Error()}
	r.Courses = nil
	r.finish()
	return r
}

// TotalPrograms is the number of courses stored after the run
func (r *Report) TotalPrograms() int {
	return len(r.Courses)
}

// FaultsOf returns the recorded faults of kind k
func (r *Report) FaultsOf(k Kind) []*Fault {
	var out []*Fault
	for _, f := range r.Faults {
		if f.Kind == k {
			out = append(out, f)
		}
	}
	return out
}

// Duration is how long the run took
func (r *Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

func (r *Report) finish() {
	r.State = StateDone
	r.FinishedAt = time.Now()
}
