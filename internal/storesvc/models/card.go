package models

import (
	"time"
)

// RFIDCard links a card uid to a student.
type RFIDCard struct {
	ID        int64  `json:"id"` // Primary key
	StudentID int64  `json:"student_id"`
	UIDHex    string `json:"uid_hex"`
}

// CardScan is a raw card read reported by the device, waiting to be
// consumed by a begin-attendance call.
type CardScan struct {
	ID        int64     `json:"id"` // Primary key
	UIDHex    string    `json:"uid_hex"`
	ScannedAt time.Time `json:"scanned_at"`
}
