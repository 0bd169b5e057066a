package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/law-makers/uniscrape/pkg/models"
)

const courseColumns = `id, institution_id, title, type, location, url, education_level,
	description, duration, tuition_fee, start_date, created_at, updated_at`

// UpsertCourse finds the course keyed by (institutionID, f.Title) and
// overwrites its mutable fields, or creates it when absent. The row id of an
// existing course is preserved. created reports whether a new row was made.
func (s *Store) UpsertCourse(ctx context.Context, institutionID int64, f models.CourseFields) (course *models.Course, created bool, err error) {
	if f.Title == "" {
		return nil, false, ErrEmptyTitle
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	now := formatTime(time.Now())

	var id int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM courses WHERE institution_id = ? AND title = ? ORDER BY id LIMIT 1`,
		institutionID, f.Title,
	).Scan(&id)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		id, err = insertCourse(ctx, tx, institutionID, f, now)
		if err != nil {
			return nil, false, err
		}
		created = true
	case err != nil:
		return nil, false, fmt.Errorf("failed to look up course %q: %w", f.Title, err)
	default:
		_, err = tx.ExecContext(ctx, `
			UPDATE courses SET type = ?, location = ?, url = ?, education_level = ?,
				description = ?, duration = ?, tuition_fee = ?, start_date = ?, updated_at = ?
			WHERE id = ?`,
			f.Type, f.Location, f.URL, f.EducationLevel,
			f.Description, f.Duration, f.TuitionFee, f.StartDate, now, id,
		)
		if err != nil {
			return nil, false, fmt.Errorf("failed to update course %q: %w", f.Title, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit course %q: %w", f.Title, err)
	}

	course, err = s.GetCourse(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return course, created, nil
}

// InsertCourse always creates a new course row.
func (s *Store) InsertCourse(ctx context.Context, institutionID int64, f models.CourseFields) (*models.Course, error) {
	if f.Title == "" {
		return nil, ErrEmptyTitle
	}
	id, err := insertCourse(ctx, s.db, institutionID, f, formatTime(time.Now()))
	if err != nil {
		return nil, err
	}
	return s.GetCourse(ctx, id)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertCourse(ctx context.Context, db execer, institutionID int64, f models.CourseFields, now string) (int64, error) {
	res, err := db.ExecContext(ctx, `
		INSERT INTO courses (institution_id, title, type, location, url, education_level,
			description, duration, tuition_fee, start_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		institutionID, f.Title, f.Type, f.Location, f.URL, f.EducationLevel,
		f.Description, f.Duration, f.TuitionFee, f.StartDate, now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert course %q: %w", f.Title, err)
	}
	return res.LastInsertId()
}

// GetCourse returns a course by id.
func (s *Store) GetCourse(ctx context.Context, id int64) (*models.Course, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+courseColumns+` FROM courses WHERE id = ?`, id)
	c, err := scanCourse(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get course %d: %w", id, err)
	}
	return c, nil
}

// DeleteCourses removes every course of an institution and returns how many were deleted.
func (s *Store) DeleteCourses(ctx context.Context, institutionID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM courses WHERE institution_id = ?`, institutionID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete courses: %w", err)
	}
	return res.RowsAffected()
}

// ListCourses returns all courses of an institution ordered by title.
func (s *Store) ListCourses(ctx context.Context, institutionID int64) ([]models.Course, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+courseColumns+` FROM courses WHERE institution_id = ? ORDER BY title, id`, institutionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	defer rows.Close()

	var out []models.Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// CountCourses returns the number of stored courses of an institution.
func (s *Store) CountCourses(ctx context.Context, institutionID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM courses WHERE institution_id = ?`, institutionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count courses: %w", err)
	}
	return n, nil
}

// DeleteInstitution removes an institution; its courses cascade.
func (s *Store) DeleteInstitution(ctx context.Context, slug string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM institutions WHERE slug = ?`, slug)
	if err != nil {
		return fmt.Errorf("failed to delete institution %s: %w", slug, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrInstitutionNotFound
	}
	return nil
}

func scanCourse(row scanner) (*models.Course, error) {
	var c models.Course
	var url, level, desc, duration, fee, start sql.NullString
	var created, updated string
	err := row.Scan(&c.ID, &c.InstitutionID, &c.Title, &c.Type, &c.Location, &url, &level,
		&desc, &duration, &fee, &start, &created, &updated)
	if err != nil {
		return nil, err
	}
	c.URL = nullable(url)
	c.EducationLevel = nullable(level)
	c.Description = nullable(desc)
	c.Duration = nullable(duration)
	c.TuitionFee = nullable(fee)
	c.StartDate = nullable(start)
	c.CreatedAt = parseTime(created)
	c.UpdatedAt = parseTime(updated)
	return &c, nil
}

func nullable(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
