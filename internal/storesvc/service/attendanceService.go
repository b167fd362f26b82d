package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/amankwa/attendance-services/internal/storesvc/models"
)

var (
	ErrNoActiveSession = errors.New("no active session")
	ErrCardNotLinked   = errors.New("RFID card not linked to a student")
)

type AttendanceStore interface {
	ListBySession(ctx context.Context, sessionID int64) ([]models.AttendanceLog, error)
	Create(ctx context.Context, sessionID, studentID int64, rfidOk, faceOk bool) (*models.AttendanceLog, error)
}

type CardFinder interface {
	FindByUID(ctx context.Context, uidHex string) (*models.RFIDCard, error)
}

// AttendanceService appends and lists capture results.
type AttendanceService struct {
	attendance AttendanceStore
	cards      CardFinder
	sessions   SessionStore
}

func NewAttendanceService(attendance AttendanceStore, cards CardFinder, sessions SessionStore) *AttendanceService {
	return &AttendanceService{attendance: attendance, cards: cards, sessions: sessions}
}

func (s *AttendanceService) List(ctx context.Context, sessionID int64) ([]models.AttendanceLog, error) {
	return s.attendance.ListBySession(ctx, sessionID)
}

// Mark records a device-side capture result for the active session. The
// student is resolved through the linked card.
func (s *AttendanceService) Mark(ctx context.Context, uidHex string, faceOk bool) (*models.AttendanceLog, error) {
	active, err := s.sessions.Active(ctx)
	if err != nil {
		return nil, fmt.Errorf("check active session: %w", err)
	}
	if active == nil {
		return nil, ErrNoActiveSession
	}

	card, err := s.cards.FindByUID(ctx, uidHex)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, fmt.Errorf("%w: %s", ErrCardNotLinked, uidHex)
	}

	return s.attendance.Create(ctx, active.ID, card.StudentID, true, faceOk)
}
