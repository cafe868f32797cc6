package course

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	pkgerrors "github.com/coursehound/coursehound/pkg/errors"
	"github.com/coursehound/coursehound/pkg/postgres"
)

const courseColumns = `id, name, university, faculty, full_time, description,
	start_date, fees, fees_eur, modality, duration, city, country,
	administration, url`

// PostgresStore persists courses in a single table. Reads order by ID so
// index builds see a stable traversal.
type PostgresStore struct {
	client *postgres.Client
}

// NewPostgresStore wraps an existing Postgres client.
func NewPostgresStore(client *postgres.Client) *PostgresStore {
	return &PostgresStore{client: client}
}

// Migrate creates the courses table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.client.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS courses (
			id             TEXT PRIMARY KEY,
			name           TEXT NOT NULL DEFAULT '',
			university     TEXT NOT NULL DEFAULT '',
			faculty        TEXT NOT NULL DEFAULT '',
			full_time      TEXT NOT NULL DEFAULT '',
			description    TEXT NOT NULL DEFAULT '',
			start_date     TEXT NOT NULL DEFAULT '',
			fees           TEXT NOT NULL DEFAULT '',
			fees_eur       DOUBLE PRECISION,
			modality       TEXT NOT NULL DEFAULT '',
			duration       TEXT NOT NULL DEFAULT '',
			city           TEXT NOT NULL DEFAULT '',
			country        TEXT NOT NULL DEFAULT '',
			administration TEXT NOT NULL DEFAULT '',
			url            TEXT NOT NULL DEFAULT ''
		)`)
	if err != nil {
		return fmt.Errorf("creating courses table: %w", err)
	}
	return nil
}

// List returns every course ordered by ID.
func (s *PostgresStore) List(ctx context.Context) ([]Course, error) {
	rows, err := s.client.DB.QueryContext(ctx,
		`SELECT `+courseColumns+` FROM courses ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing courses: %w", err)
	}
	defer rows.Close()

	var courses []Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating courses: %w", err)
	}
	return courses, nil
}

// Get returns a course by ID.
func (s *PostgresStore) Get(ctx context.Context, id string) (*Course, error) {
	row := s.client.DB.QueryRowContext(ctx,
		`SELECT `+courseColumns+` FROM courses WHERE id = $1`, id)
	c, err := scanCourse(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, pkgerrors.ErrCourseNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Count returns the corpus size.
func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.client.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM courses`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting courses: %w", err)
	}
	return n, nil
}

// Upsert inserts or replaces a course record inside a transaction.
func (s *PostgresStore) Upsert(ctx context.Context, c Course) error {
	err := s.client.InTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO courses (`+courseColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				university = EXCLUDED.university,
				faculty = EXCLUDED.faculty,
				full_time = EXCLUDED.full_time,
				description = EXCLUDED.description,
				start_date = EXCLUDED.start_date,
				fees = EXCLUDED.fees,
				fees_eur = EXCLUDED.fees_eur,
				modality = EXCLUDED.modality,
				duration = EXCLUDED.duration,
				city = EXCLUDED.city,
				country = EXCLUDED.country,
				administration = EXCLUDED.administration,
				url = EXCLUDED.url`,
			c.ID, c.Name, c.University, c.Faculty, c.FullTime, c.Description,
			c.StartDate, c.Fees, c.FeesEUR, c.Modality, c.Duration, c.City,
			c.Country, c.Administration, c.URL)
		return err
	})
	if err != nil {
		return fmt.Errorf("upserting course %s: %w", c.ID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCourse(row rowScanner) (Course, error) {
	var c Course
	var feesEUR sql.NullFloat64
	err := row.Scan(&c.ID, &c.Name, &c.University, &c.Faculty, &c.FullTime,
		&c.Description, &c.StartDate, &c.Fees, &feesEUR, &c.Modality,
		&c.Duration, &c.City, &c.Country, &c.Administration, &c.URL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c, err
		}
		return c, fmt.Errorf("scanning course row: %w", err)
	}
	if feesEUR.Valid {
		c.FeesEUR = &feesEUR.Float64
	}
	return c, nil
}
