package report

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/law-makers/uniscrape/internal/pipeline"
	"github.com/law-makers/uniscrape/internal/ui"
	"github.com/law-makers/uniscrape/pkg/models"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

// Text writes a console summary of a run followed by its errors and programs
func Text(w io.Writer, rep *pipeline.Report) error {
	fmt.Fprintf(w, "%s (%s)\n", rep.Institution.Name, rep.Institution.Slug)
	fmt.Fprintf(w, "  run:        %s\n", rep.RunID)
	fmt.Fprintf(w, "  state:      %s\n", rep.State)
	fmt.Fprintf(w, "  processed:  %d\n", rep.CoursesProcessed)
	fmt.Fprintf(w, "  pages:      %d\n", rep.PagesScraped)
	fmt.Fprintf(w, "  programs:   %d\n", rep.TotalPrograms())
	fmt.Fprintf(w, "  duration:   %s\n", rep.Duration().Round(time.Millisecond))

	if len(rep.Errors) > 0 {
		fmt.Fprintln(w, "\nErrors:")
		for _, e := range rep.Errors {
			fmt.Fprintf(w, "  - %s\n", e)
		}
	}

	if len(rep.Courses) > 0 {
		fmt.Fprintln(w)
		Courses(w, rep.Courses)
	}
	return nil
}

// Courses writes a table of stored courses
func Courses(w io.Writer, courses []models.Course) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Title", "Type", "Location", "Level", "URL"})
	for _, c := range courses {
		t.AppendRow(table.Row{c.Title, c.Type, c.Location, models.Deref(c.EducationLevel), models.Deref(c.URL)})
	}
	t.AppendFooter(table.Row{"", "", "", "Total", len(courses)})
	t.Render()
}

// Stats writes the institution overview table
func Stats(w io.Writer, stats []models.InstitutionStats) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Institution", "Slug", "City", "Courses"})
	total := 0
	for _, s := range stats {
		t.AppendRow(table.Row{s.Name, s.Slug, s.City, s.CourseCount})
		total += s.CourseCount
	}
	t.AppendFooter(table.Row{"", "", "Total", total})
	t.Render()
}

// Summary writes one line per report, as printed after scrape-all
func Summary(w io.Writer, reports []*pipeline.Report) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Institution", "Processed", "Pages", "Errors", "Status"})
	for _, rep := range reports {
		status := "ok"
		if rep.Fatal {
			status = "failed"
		} else if len(rep.Faults) > 0 {
			status = "partial"
		}
		t.AppendRow(table.Row{rep.Institution.Name, rep.CoursesProcessed, rep.PagesScraped, len(rep.Faults), ui.Status(status)})
	}
	t.Render()
}

// Write renders rep in format
func Write(w io.Writer, rep *pipeline.Report, format string) error {
	switch format {
	case FormatText, "":
		return Text(w, rep)
	case FormatHTML:
		return HTML(w, rep)
	case FormatMarkdown:
		return Markdown(w, rep)
	case FormatJSON:
		return JSON(w, rep)
	}
	return fmt.Errorf("unknown format %q", format)
}
