package models

import (
	"time"
)

type Session struct {
	ID         int64      `json:"id"`         // Primary key
	CourseCode string     `json:"course_code"`
	StartedAt  time.Time  `json:"started_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty"` // nil while the session is active
}
