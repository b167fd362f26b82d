package service

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrNoScanPending = errors.New("no card scan pending")

// BeginResult is what a manual begin-attendance call hands back to the
// operator UI.
type BeginResult struct {
	Timestamp          time.Time `json:"timestamp"`
	StudentID          int64     `json:"student_id"`
	RFIDUid            string    `json:"rfid_uid,omitempty"`
	RegistrationNumber string    `json:"registration_number,omitempty"`
}

// CaptureService turns a pending card scan into an attendance row for
// the active session.
type CaptureService struct {
	sessions   SessionStore
	scans      ScanStore
	cards      CardFinder
	students   StudentStore
	attendance AttendanceStore
}

func NewCaptureService(sessions SessionStore, scans ScanStore, cards CardFinder,
	students StudentStore, attendance AttendanceStore) *CaptureService {
	return &CaptureService{
		sessions:   sessions,
		scans:      scans,
		cards:      cards,
		students:   students,
		attendance: attendance,
	}
}

// Begin consumes the most recent pending scan, resolves the student and
// appends an attendance row.
func (s *CaptureService) Begin(ctx context.Context) (*BeginResult, error) {
	active, err := s.sessions.Active(ctx)
	if err != nil {
		return nil, fmt.Errorf("check active session: %w", err)
	}
	if active == nil {
		return nil, ErrNoActiveSession
	}

	scan, err := s.scans.TakeLatest(ctx)
	if err != nil {
		return nil, err
	}
	if scan == nil {
		return nil, ErrNoScanPending
	}

	card, err := s.cards.FindByUID(ctx, scan.UIDHex)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, fmt.Errorf("%w: %s", ErrCardNotLinked, scan.UIDHex)
	}

	row, err := s.attendance.Create(ctx, active.ID, card.StudentID, true, false)
	if err != nil {
		return nil, err
	}

	result := &BeginResult{
		Timestamp: row.CreatedAt,
		StudentID: card.StudentID,
		RFIDUid:   scan.UIDHex,
	}

	student, err := s.students.GetByID(ctx, card.StudentID)
	if err == nil && student != nil {
		result.RegistrationNumber = student.IndexNo
	}

	return result, nil
}
