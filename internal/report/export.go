package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/law-makers/uniscrape/pkg/models"
)

// Formats accepted by Write
const (
	FormatText     = "text"
	FormatHTML     = "html"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

var courseHeader = []string{
	"id", "title", "type", "location", "url", "education_level",
	"description", "duration", "tuition_fee", "start_date", "updated_at",
}

// JSON writes v as indented JSON
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// CoursesCSV writes courses with a fixed header row
func CoursesCSV(w io.Writer, courses []models.Course) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(courseHeader); err != nil {
		return err
	}
	for _, c := range courses {
		row := []string{
			strconv.FormatInt(c.ID, 10),
			c.Title,
			c.Type,
			c.Location,
			models.Deref(c.URL),
			models.Deref(c.EducationLevel),
			models.Deref(c.Description),
			models.Deref(c.Duration),
			models.Deref(c.TuitionFee),
			models.Deref(c.StartDate),
			c.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// SaveCourses exports courses to path. The extension picks JSON or CSV.
func SaveCourses(path string, courses []models.Course) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".json" && ext != ".csv" {
		return fmt.Errorf("unsupported export format %q (use .json or .csv)", ext)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	if ext == ".csv" {
		return CoursesCSV(file, courses)
	}
	if courses == nil {
		courses = []models.Course{}
	}
	return JSON(file, courses)
}
