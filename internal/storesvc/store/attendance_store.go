package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amankwa/attendance-services/internal/storesvc/models"
)

type AttendanceStore struct {
	db *pgxpool.Pool
}

func NewAttendanceStore(db *pgxpool.Pool) *AttendanceStore {
	return &AttendanceStore{db: db}
}

// ListBySession returns all rows for the session in capture order.
func (r *AttendanceStore) ListBySession(ctx context.Context, sessionID int64) ([]models.AttendanceLog, error) {
	rows, err := r.db.Query(ctx, `
        SELECT id, session_id, student_id, rfid_ok, face_ok, created_at
        FROM attendance
        WHERE session_id = $1
        ORDER BY created_at
    `, sessionID)
	if err != nil {
		return nil, fmt.Errorf("could not list attendance: %w", err)
	}
	defer rows.Close()

	logs := []models.AttendanceLog{}
	for rows.Next() {
		var a models.AttendanceLog
		if err := rows.Scan(&a.ID, &a.SessionID, &a.StudentID, &a.RFIDOk, &a.FaceOk, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attendance row: %w", err)
		}
		logs = append(logs, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("attendance rows error: %w", err)
	}

	return logs, nil
}

func (r *AttendanceStore) Create(ctx context.Context, sessionID, studentID int64, rfidOk, faceOk bool) (*models.AttendanceLog, error) {
	a := &models.AttendanceLog{
		SessionID: sessionID,
		StudentID: studentID,
		RFIDOk:    rfidOk,
		FaceOk:    faceOk,
	}

	query := `
        INSERT INTO attendance (session_id, student_id, rfid_ok, face_ok, created_at)
        VALUES ($1, $2, $3, $4, now())
        RETURNING id, created_at;
    `

	err := r.db.QueryRow(ctx, query, sessionID, studentID, rfidOk, faceOk).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("could not create attendance row: %w", err)
	}

	return a, nil
}
