package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/law-makers/uniscrape/internal/pipeline"
	"github.com/law-makers/uniscrape/pkg/models"
)

func sampleReport() *pipeline.Report {
	rep := pipeline.NewReport(models.Institution{
		Slug:    "hanze",
		Name:    "Hanze <University>",
		City:    "Groningen",
		Website: "https://www.hanze.nl",
	}, models.PolicyUpsert)
	rep.RunID = "run-1"
	rep.CoursesProcessed = 2
	rep.PagesScraped = 1
	rep.AddFault(pipeline.NewFault(pipeline.KindTransport, 2, "Failed to fetch page 2", nil))
	rep.Debugf("Found %d programs", 2)
	rep.Courses = []models.Course{
		{ID: 1, CourseFields: models.CourseFields{Title: "Nursing", Type: "Bachelor", Location: "Groningen", URL: models.StringPtr("https://www.hanze.nl/nursing")}},
		{ID: 2, CourseFields: models.CourseFields{Title: "Energy", Type: "Master", Location: "Groningen", EducationLevel: models.StringPtr("MSc")}},
	}
	return rep
}

func TestHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, HTML(&buf, sampleReport()))
	out := buf.String()

	assert.Contains(t, out, "Hanze &lt;University&gt;")
	assert.Contains(t, out, "Courses processed: 2")
	assert.Contains(t, out, "Pages scraped: 1")
	assert.Contains(t, out, "Failed to fetch page 2")
	assert.Contains(t, out, `<li class="debug">Debug - Found 2 programs</li>`)
	assert.Contains(t, out, `<a href="https://www.hanze.nl/nursing">`)
	assert.Contains(t, out, "<td>MSc</td>")
}

func TestHTML_NoPrograms(t *testing.T) {
	rep := pipeline.NewReport(models.Institution{Name: "Empty"}, models.PolicyReplace)
	var buf bytes.Buffer
	require.NoError(t, HTML(&buf, rep))
	assert.Contains(t, buf.String(), "No programs found.")
	assert.NotContains(t, buf.String(), "<h2>Errors</h2>")
}

func TestStatsHTML(t *testing.T) {
	var buf bytes.Buffer
	err := StatsHTML(&buf, []models.InstitutionStats{
		{Institution: models.Institution{Name: "Open Universiteit", City: "Heerlen"}, CourseCount: 12},
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "<td>Open Universiteit</td><td>Heerlen</td><td>12</td>")
}

func TestMarkdown(t *testing.T) {
	rep := sampleReport()
	rep.Institution.Name = "Hanze"
	var buf bytes.Buffer
	require.NoError(t, Markdown(&buf, rep))
	out := buf.String()

	assert.Contains(t, out, "# Hanze")
	assert.Contains(t, out, "(https://www.hanze.nl/nursing)")
	assert.Contains(t, out, "Nursing")
	assert.Contains(t, out, "Courses processed: 2")
	assert.NotContains(t, out, "<table>")
}

func TestCleanHTML(t *testing.T) {
	out, err := CleanHTML(`<div class="x" onclick="y()"><script>alert(1)</script><a href="/a" class="b">A</a><img src="i.png" style="s"></div>`)
	require.NoError(t, err)
	assert.NotContains(t, out, "script")
	assert.NotContains(t, out, "class=")
	assert.NotContains(t, out, "style=")
	assert.Contains(t, out, `<a href="/a">A</a>`)
	assert.Contains(t, out, `src="i.png"`)
}

func TestText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleReport(), FormatText))
	out := buf.String()

	assert.Contains(t, out, "processed:  2")
	assert.Contains(t, out, "- Failed to fetch page 2")
	assert.Contains(t, out, "Nursing")

	assert.Error(t, Write(&buf, sampleReport(), "yaml"))
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleReport(), FormatJSON))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "run-1", got["run_id"])
	assert.EqualValues(t, 2, got["courses_processed"])
	assert.Len(t, got["errors"], 2)
	assert.NotContains(t, got, "Faults")
}

func TestStats(t *testing.T) {
	var buf bytes.Buffer
	Stats(&buf, []models.InstitutionStats{
		{Institution: models.Institution{Name: "Hanze", Slug: "hanze", City: "Groningen"}, CourseCount: 3},
		{Institution: models.Institution{Name: "OU", Slug: "ou", City: "Heerlen"}, CourseCount: 4},
	})
	out := buf.String()
	assert.Contains(t, out, "Hanze")
	assert.Contains(t, out, "7")
}

func TestSummary(t *testing.T) {
	ok := sampleReport()
	failed := pipeline.NewReport(models.Institution{Name: "Broken"}, models.PolicyReplace)
	failed.Abort(pipeline.NewFault(pipeline.KindFatal, 1, "boom", nil))

	var buf bytes.Buffer
	Summary(&buf, []*pipeline.Report{ok, failed})
	out := buf.String()
	assert.Contains(t, out, "partial")
	assert.Contains(t, out, "failed")
}

func TestCoursesCSV(t *testing.T) {
	updated := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	courses := []models.Course{
		{ID: 7, UpdatedAt: updated, CourseFields: models.CourseFields{Title: "Kok, niveau 2", Type: "BOL", Location: "Groningen", Duration: models.StringPtr("2 jaar")}},
	}
	var buf bytes.Buffer
	require.NoError(t, CoursesCSV(&buf, courses))

	rows, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, courseHeader, rows[0])
	assert.Equal(t, "7", rows[1][0])
	assert.Equal(t, "Kok, niveau 2", rows[1][1])
	assert.Equal(t, "2 jaar", rows[1][7])
	assert.Equal(t, "2025-03-01T12:00:00Z", rows[1][10])
}

func TestSaveCourses(t *testing.T) {
	dir := t.TempDir()
	courses := sampleReport().Courses

	jsonPath := filepath.Join(dir, "courses.json")
	require.NoError(t, SaveCourses(jsonPath, courses))
	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var decoded []models.Course
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Len(t, decoded, 2)

	csvPath := filepath.Join(dir, "courses.CSV")
	require.NoError(t, SaveCourses(csvPath, courses))

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, SaveCourses(empty, nil))
	data, err = os.ReadFile(empty)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))

	assert.Error(t, SaveCourses(filepath.Join(dir, "courses.xml"), courses))
}
