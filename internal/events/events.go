package events

import (
	"encoding/json"
	"time"
)

// Subject carries every base station event for the stream gateway.
const Subject = "base.events"

// Event types published on the subject.
const (
	TypeSessionActive       = "session-active"
	TypeSessionCleared      = "session-cleared"
	TypeAttendanceSnapshot  = "attendance-snapshot"
	TypeDeviceStatus        = "device-status"
	TypeCaptureResult       = "capture-result"
	TypeUnsolicitedResponse = "unsolicited-response"
)

// Envelope wraps every published event.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Publisher is how the base station components surface state changes.
// They never reach into the presentation layer directly.
type Publisher interface {
	Publish(eventType string, payload any)
}

type SessionActive struct {
	ID         int64     `json:"id"`
	CourseCode string    `json:"course_code"`
	StartedAt  time.Time `json:"started_at"`
}

type SessionCleared struct {
	CourseCode string `json:"course_code"`
}

type AttendanceRow struct {
	SessionID int64     `json:"session_id"`
	StudentID int64     `json:"student_id"`
	RFIDOk    bool      `json:"rfid_ok"`
	FaceOk    bool      `json:"face_ok"`
	CreatedAt time.Time `json:"created_at"`
}

// AttendanceSnapshot is the full row set for the active session, in the
// order the record store returned it.
type AttendanceSnapshot struct {
	SessionID int64           `json:"session_id"`
	Rows      []AttendanceRow `json:"rows"`
}

type DeviceStatus struct {
	State  string `json:"state"`
	Detail string `json:"detail,omitempty"`
}

type CaptureResult struct {
	CommandType string `json:"command_type"`
	Key         string `json:"key"`
	Status      string `json:"status"` // success | failure | timeout
	Message     string `json:"message,omitempty"`
	DeviceID    string `json:"device_id,omitempty"`
}

type UnsolicitedResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message,omitempty"`
	DeviceID string `json:"device_id,omitempty"`
}
