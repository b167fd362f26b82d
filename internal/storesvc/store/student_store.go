package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amankwa/attendance-services/internal/storesvc/models"
)

type StudentStore struct {
	db *pgxpool.Pool
}

func NewStudentStore(db *pgxpool.Pool) *StudentStore {
	return &StudentStore{db: db}
}

// List returns students, filtered by a case-insensitive match on full
// name or index number when search is non-empty.
func (r *StudentStore) List(ctx context.Context, search string) ([]models.Student, error) {
	query := `
        SELECT id, index_no, full_name
        FROM students
        ORDER BY id
    `
	args := []any{}

	if search != "" {
		query = `
            SELECT id, index_no, full_name
            FROM students
            WHERE full_name ILIKE '%' || $1 || '%' OR index_no ILIKE '%' || $1 || '%'
            ORDER BY id
        `
		args = append(args, search)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("could not list students: %w", err)
	}
	defer rows.Close()

	students := []models.Student{}
	for rows.Next() {
		var s models.Student
		if err := rows.Scan(&s.ID, &s.IndexNo, &s.FullName); err != nil {
			return nil, fmt.Errorf("scan student row: %w", err)
		}
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("student rows error: %w", err)
	}

	return students, nil
}

func (r *StudentStore) GetByID(ctx context.Context, id int64) (*models.Student, error) {
	row := r.db.QueryRow(ctx, `
        SELECT id, index_no, full_name
        FROM students
        WHERE id = $1
    `, id)

	s := &models.Student{}
	err := row.Scan(&s.ID, &s.IndexNo, &s.FullName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not load student %d: %w", id, err)
	}

	return s, nil
}

func (r *StudentStore) Create(ctx context.Context, indexNo, fullName string) (*models.Student, error) {
	s := &models.Student{IndexNo: indexNo, FullName: fullName}

	query := `
        INSERT INTO students (index_no, full_name)
        VALUES ($1, $2)
        RETURNING id;
    `

	err := r.db.QueryRow(ctx, query, indexNo, fullName).Scan(&s.ID)
	if err != nil {
		return nil, fmt.Errorf("could not create student: %w", err)
	}

	return s, nil
}
