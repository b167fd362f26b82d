package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/amankwa/attendance-services/internal/basesvc/storeapi"
	"github.com/amankwa/attendance-services/internal/events"
)

var (
	// ErrValidation means the operator input was missing or blank.
	ErrValidation = errors.New("course code required")

	// ErrEndSession wraps any failure to close a session; the cached
	// state is left untouched when it is returned.
	ErrEndSession = errors.New("end session failed")
)

// Store is the slice of the record store the controller needs.
type Store interface {
	ActiveSession(ctx context.Context) (*storeapi.Session, error)
	CreateSession(ctx context.Context, courseCode string) (*storeapi.Session, error)
	EndSession(ctx context.Context, courseCode string) error
}

// Poller is started and stopped as the active session changes.
type Poller interface {
	Start(sessionID int64)
	Stop()
}

// Controller owns the cached identity of the active session. The record
// store stays authoritative; the cache only changes when the store
// confirms an operation or a refresh observes a different session.
type Controller struct {
	store  Store
	poller Poller
	pub    events.Publisher

	mu     sync.Mutex
	active *storeapi.Session
}

func NewController(store Store, poller Poller, pub events.Publisher) *Controller {
	return &Controller{store: store, poller: poller, pub: pub}
}

// Active returns the cached active session, nil when none.
func (c *Controller) Active() *storeapi.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Start creates a session for the course and reconciles the cached state
// with whatever the store now reports as active.
func (c *Controller) Start(ctx context.Context, courseCode string) (*storeapi.Session, error) {
	code := Normalize(courseCode)
	if code == "" {
		return nil, ErrValidation
	}

	created, err := c.store.CreateSession(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("create session %s: %w", code, err)
	}

	if err := c.Refresh(ctx); err != nil {
		// the session exists either way; the next refresh will catch up
		log.Warnf("session %s created but refresh failed: %v", code, err)
	}
	return created, nil
}

// End closes the active session matching the normalized course code. The
// cached state is only cleared once the store confirms; on failure we do
// not guess whether the store partially applied the change.
func (c *Controller) End(ctx context.Context, courseCode string) error {
	code := Normalize(courseCode)
	if code == "" {
		return ErrValidation
	}

	if err := c.store.EndSession(ctx, code); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrEndSession, code, err)
	}

	c.mu.Lock()
	c.active = nil
	c.mu.Unlock()

	c.poller.Stop()
	c.pub.Publish(events.TypeSessionCleared, events.SessionCleared{CourseCode: code})
	log.Infof("session for %s ended", code)
	return nil
}

// Refresh reconciles the cached state with the store. Seeing the session
// we already cached is a no-op so the poller is not restarted needlessly;
// seeing none is idempotent.
func (c *Controller) Refresh(ctx context.Context) error {
	sess, err := c.store.ActiveSession(ctx)
	if err != nil {
		return fmt.Errorf("refresh active session: %w", err)
	}

	c.mu.Lock()
	prev := c.active
	c.active = sess
	c.mu.Unlock()

	switch {
	case sess == nil && prev == nil:
		// already idle
	case sess == nil:
		c.poller.Stop()
		c.pub.Publish(events.TypeSessionCleared, events.SessionCleared{CourseCode: prev.CourseCode})
		log.Infof("active session for %s is gone", prev.CourseCode)
	case prev == nil || prev.ID != sess.ID:
		c.poller.Start(sess.ID)
		c.pub.Publish(events.TypeSessionActive, events.SessionActive{
			ID:         sess.ID,
			CourseCode: sess.CourseCode,
			StartedAt:  sess.StartedAt,
		})
		log.Infof("session %d (%s) is active", sess.ID, sess.CourseCode)
	}
	return nil
}

// Normalize trims and uppercases an operator-entered course code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
