// Package store persists institutions and their courses in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/law-makers/uniscrape/pkg/models"
)

// Custom errors for store operations
var (
	ErrInstitutionNotFound = errors.New("institution not found")
	ErrEmptySlug           = errors.New("institution slug is required")
	ErrEmptyTitle          = errors.New("course title is required")
)

// Store manages institutions and courses using SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at dbPath and initializes the schema.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", withForeignKeys(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows a single writer; sharing one connection also keeps
	// ":memory:" databases consistent across calls.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	log.Debug().Str("path", dbPath).Msg("Store opened")
	return s, nil
}

func withForeignKeys(dbPath string) string {
	if strings.Contains(dbPath, "_foreign_keys") {
		return dbPath
	}
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + "_foreign_keys=on"
}

// initSchema creates the tables if they don't exist.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS institutions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		slug TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		city TEXT NOT NULL,
		website TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS courses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		institution_id INTEGER NOT NULL REFERENCES institutions(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		type TEXT NOT NULL,
		location TEXT NOT NULL,
		url TEXT,
		education_level TEXT,
		description TEXT,
		duration TEXT,
		tuition_fee TEXT,
		start_date TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_courses_institution_title ON courses(institution_id, title);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureInstitution returns the institution with inst.Slug, creating it first
// when absent. Existing rows are left untouched.
func (s *Store) EnsureInstitution(ctx context.Context, inst models.Institution) (*models.Institution, error) {
	if inst.Slug == "" {
		return nil, ErrEmptySlug
	}

	now := formatTime(time.Now())
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO institutions (slug, name, city, website, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(slug) DO NOTHING`,
		inst.Slug, inst.Name, inst.City, inst.Website, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure institution %s: %w", inst.Slug, err)
	}

	return s.GetInstitution(ctx, inst.Slug)
}

// GetInstitution looks up an institution by slug.
func (s *Store) GetInstitution(ctx context.Context, slug string) (*models.Institution, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, slug, name, city, website, created_at, updated_at
		FROM institutions WHERE slug = ?`, slug)

	inst, err := scanInstitution(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInstitutionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get institution %s: %w", slug, err)
	}
	return inst, nil
}

// ListInstitutions returns all institutions ordered by name.
func (s *Store) ListInstitutions(ctx context.Context) ([]models.Institution, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, slug, name, city, website, created_at, updated_at
		FROM institutions ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list institutions: %w", err)
	}
	defer rows.Close()

	var out []models.Institution
	for rows.Next() {
		inst, err := scanInstitution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan institution: %w", err)
		}
		out = append(out, *inst)
	}
	return out, rows.Err()
}

// Stats returns every institution with its current course count.
func (s *Store) Stats(ctx context.Context) ([]models.InstitutionStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.id, i.slug, i.name, i.city, i.website, i.created_at, i.updated_at, COUNT(c.id)
		FROM institutions i
		LEFT JOIN courses c ON c.institution_id = i.id
		GROUP BY i.id
		ORDER BY i.name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}
	defer rows.Close()

	var out []models.InstitutionStats
	for rows.Next() {
		var st models.InstitutionStats
		var created, updated string
		if err := rows.Scan(&st.ID, &st.Slug, &st.Name, &st.City, &st.Website, &created, &updated, &st.CourseCount); err != nil {
			return nil, fmt.Errorf("failed to scan stats: %w", err)
		}
		st.CreatedAt = parseTime(created)
		st.UpdatedAt = parseTime(updated)
		out = append(out, st)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInstitution(row scanner) (*models.Institution, error) {
	var inst models.Institution
	var created, updated string
	if err := row.Scan(&inst.ID, &inst.Slug, &inst.Name, &inst.City, &inst.Website, &created, &updated); err != nil {
		return nil, err
	}
	inst.CreatedAt = parseTime(created)
	inst.UpdatedAt = parseTime(updated)
	return &inst, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
