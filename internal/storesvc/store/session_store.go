package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amankwa/attendance-services/internal/storesvc/models"
)

type SessionStore struct {
	db *pgxpool.Pool
}

func NewSessionStore(db *pgxpool.Pool) *SessionStore {
	return &SessionStore{db: db}
}

// Active returns the session with no end timestamp, nil when none exists.
func (r *SessionStore) Active(ctx context.Context) (*models.Session, error) {
	row := r.db.QueryRow(ctx, `
        SELECT id, course_code, started_at, ended_at
        FROM sessions
        WHERE ended_at IS NULL
        ORDER BY started_at DESC
        LIMIT 1
    `)

	s := &models.Session{}
	err := row.Scan(&s.ID, &s.CourseCode, &s.StartedAt, &s.EndedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not load active session: %w", err)
	}

	return s, nil
}

func (r *SessionStore) Create(ctx context.Context, courseCode string) (*models.Session, error) {
	s := &models.Session{CourseCode: courseCode}

	query := `
        INSERT INTO sessions (course_code, started_at)
        VALUES ($1, now())
        RETURNING id, started_at;
    `

	err := r.db.QueryRow(ctx, query, courseCode).Scan(&s.ID, &s.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("could not create session: %w", err)
	}

	return s, nil
}

// EndByCode closes the active session for the course code and reports
// whether one matched.
func (r *SessionStore) EndByCode(ctx context.Context, courseCode string) (int64, bool, error) {
	var id int64

	query := `
        UPDATE sessions
        SET ended_at = now()
        WHERE course_code = $1 AND ended_at IS NULL
        RETURNING id;
    `

	err := r.db.QueryRow(ctx, query, courseCode).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("could not end session for %s: %w", courseCode, err)
	}

	return id, true, nil
}
