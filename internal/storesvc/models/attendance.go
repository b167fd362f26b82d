package models

import (
	"time"
)

// AttendanceLog rows are immutable once created.
type AttendanceLog struct {
	ID        int64     `json:"id"` // Primary key
	SessionID int64     `json:"session_id"`
	StudentID int64     `json:"student_id"`
	RFIDOk    bool      `json:"rfid_ok"`
	FaceOk    bool      `json:"face_ok"`
	CreatedAt time.Time `json:"created_at"`
}
