package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/amankwa/attendance-services/internal/storesvc/models"
)

var (
	ErrCourseCodeRequired = errors.New("course_code required")
	ErrSessionActive      = errors.New("another session is already active")
	ErrNoMatchingSession  = errors.New("no active session for course code")
)

// SessionStore is the persistence the session service needs.
type SessionStore interface {
	Active(ctx context.Context) (*models.Session, error)
	Create(ctx context.Context, courseCode string) (*models.Session, error)
	EndByCode(ctx context.Context, courseCode string) (int64, bool, error)
}

// SessionService owns the single-active-session invariant.
type SessionService struct {
	sessions SessionStore
}

func NewSessionService(sessions SessionStore) *SessionService {
	return &SessionService{sessions: sessions}
}

func (s *SessionService) Active(ctx context.Context) (*models.Session, error) {
	return s.sessions.Active(ctx)
}

// Start opens a session for the course. At most one session may be open
// at a time.
func (s *SessionService) Start(ctx context.Context, courseCode string) (*models.Session, error) {
	code := strings.ToUpper(strings.TrimSpace(courseCode))
	if code == "" {
		return nil, ErrCourseCodeRequired
	}

	active, err := s.sessions.Active(ctx)
	if err != nil {
		return nil, fmt.Errorf("check active session: %w", err)
	}
	if active != nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionActive, active.CourseCode)
	}

	return s.sessions.Create(ctx, code)
}

// End closes the active session whose course code matches.
func (s *SessionService) End(ctx context.Context, courseCode string) (int64, error) {
	code := strings.ToUpper(strings.TrimSpace(courseCode))
	if code == "" {
		return 0, ErrCourseCodeRequired
	}

	id, found, err := s.sessions.EndByCode(ctx, code)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, fmt.Errorf("%w: %s", ErrNoMatchingSession, code)
	}

	return id, nil
}
