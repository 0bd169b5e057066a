package models

import "time"

// UpdatePolicy defines how an institution's stored courses are reconciled with a fresh scrape
type UpdatePolicy string

const (
	// PolicyUpsert overwrites courses in place keyed by (institution, title)
	PolicyUpsert UpdatePolicy = "upsert"
	// PolicyReplace deletes every course of the institution before repopulating
	PolicyReplace UpdatePolicy = "replace"
)

// Institution represents an educational institution whose catalog is scraped
type Institution struct {
	ID        int64     `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	City      string    `json:"city"`
	Website   string    `json:"website"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Course represents a stored program/course offering
type Course struct {
	ID            int64 `json:"id"`
	InstitutionID int64 `json:"institution_id"`
	CourseFields
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CourseFields holds the mutable, normalized fields of a course.
// Optional fields are nil when the source did not provide them.
type CourseFields struct {
	Title          string  `json:"title"`
	Type           string  `json:"type"`
	Location       string  `json:"location"`
	URL            *string `json:"url,omitempty"`
	EducationLevel *string `json:"education_level,omitempty"`
	Description    *string `json:"description,omitempty"`
	Duration       *string `json:"duration,omitempty"`
	TuitionFee     *string `json:"tuition_fee,omitempty"`
	StartDate      *string `json:"start_date,omitempty"`
}

// InstitutionStats is one row of the aggregate statistics listing
type InstitutionStats struct {
	Institution
	CourseCount int `json:"course_count"`
}

// StringPtr returns a pointer to s, or nil when s is empty
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "" for nil
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
