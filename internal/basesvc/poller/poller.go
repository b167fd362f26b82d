package poller

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/amankwa/attendance-services/internal/basesvc/storeapi"
	"github.com/amankwa/attendance-services/internal/events"
)

// Lister is the slice of the record store the poller needs.
type Lister interface {
	ListAttendance(ctx context.Context, sessionID int64) ([]storeapi.AttendanceRecord, error)
}

// run is the state of one polling schedule. Each Start creates a fresh
// run so a fetch still in flight for a previous session can never touch
// the new schedule.
type run struct {
	sessionID int64

	mu       sync.Mutex
	inFlight bool
}

// Poller republishes attendance snapshots for the active session on a
// fixed cadence. At most one fetch is in flight at a time (a tick during
// an outstanding fetch is skipped, not queued), and a snapshot is only
// published while its session is still the current one.
type Poller struct {
	lister   Lister
	pub      events.Publisher
	interval time.Duration

	mu     sync.Mutex
	cur    *run
	cancel context.CancelFunc
}

func New(lister Lister, pub events.Publisher, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 4 * time.Second
	}
	return &Poller{lister: lister, pub: pub, interval: interval}
}

// Start begins polling for the session, resetting any previous schedule.
func (p *Poller) Start(sessionID int64) {
	r := &run{sessionID: sessionID}

	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.cur = r
	p.mu.Unlock()

	log.Infof("log poller started for session %d (every %s)", sessionID, p.interval)
	go p.loop(ctx, r)
}

// Stop halts polling. A fetch already in flight has its result discarded.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	if p.cur != nil {
		log.Infof("log poller stopped for session %d", p.cur.sessionID)
		p.cur = nil
	}
}

func (p *Poller) current() *run {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cur
}

func (p *Poller) loop(ctx context.Context, r *run) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.tick(ctx, r)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx, r)
		}
	}
}

// tick launches a fetch unless one is already outstanding for this run.
func (p *Poller) tick(ctx context.Context, r *run) {
	r.mu.Lock()
	if r.inFlight {
		r.mu.Unlock()
		log.Debugf("fetch for session %d still in flight, skipping tick", r.sessionID)
		return
	}
	r.inFlight = true
	r.mu.Unlock()

	go p.fetch(ctx, r)
}

func (p *Poller) fetch(ctx context.Context, r *run) {
	rows, err := p.lister.ListAttendance(ctx, r.sessionID)

	r.mu.Lock()
	r.inFlight = false
	r.mu.Unlock()

	if err != nil {
		// a single failed poll does not stop the schedule
		log.Warnf("attendance fetch for session %d failed: %v", r.sessionID, err)
		return
	}
	if ctx.Err() != nil || p.current() != r {
		log.Debugf("discarding stale snapshot for session %d", r.sessionID)
		return
	}

	snap := events.AttendanceSnapshot{
		SessionID: r.sessionID,
		Rows:      make([]events.AttendanceRow, 0, len(rows)),
	}
	for _, rec := range rows {
		snap.Rows = append(snap.Rows, events.AttendanceRow{
			SessionID: rec.SessionID,
			StudentID: rec.StudentID,
			RFIDOk:    rec.RFIDOk,
			FaceOk:    rec.FaceOk,
			CreatedAt: rec.CreatedAt,
		})
	}
	p.pub.Publish(events.TypeAttendanceSnapshot, snap)
}
